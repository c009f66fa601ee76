package misc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if config.ImemDepth != 256 || config.DmemWords != 512 || config.MaxCycles != 5000 {
		t.Fatalf("defaults = %+v", config)
	}

	// a missing file also falls back to the defaults
	config, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if config.ImemDepth != 256 {
		t.Fatalf("missing file config = %+v", config)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "imem-depth: 128\nmax-cycles: 1000\ntrace: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if config.ImemDepth != 128 || config.MaxCycles != 1000 || !config.Trace {
		t.Fatalf("config = %+v", config)
	}
	// unset keys keep their defaults
	if config.DmemWords != 512 {
		t.Fatalf("dmem-words = %d", config.DmemWords)
	}
}

func TestLoadConfigRejectsBadGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("imem-depth: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("zero imem depth accepted")
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Fatal(err)
	}
	config.MaxCycles = -1
	if err := config.Validate(); err == nil {
		t.Fatal("negative max-cycles accepted")
	}
}
