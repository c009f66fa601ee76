package misc

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config defines the simulator parameters that can be set through a yaml
// configuration file. Datapath widths and unit latencies are fixed by the
// hardware and are deliberately not configurable here.
type Config struct {
	// ImemDepth is the instruction memory size in 32-bit words.
	ImemDepth int `yaml:"imem-depth"`
	// DmemWords is the data memory size in 64-bit words.
	DmemWords int `yaml:"dmem-words"`
	// MaxCycles bounds a simulation run; a run that has not halted by
	// then is reported as a failure by the platform.
	MaxCycles int `yaml:"max-cycles"`
	// Trace enables the per-cycle debug log on every layer.
	Trace bool `yaml:"trace"`
}

// DefaultConfig mirrors the geometry of the synthesized core: 256
// instruction words and 512 data words.
func DefaultConfig() *Config {
	return &Config{
		ImemDepth: 256,
		DmemWords: 512,
		MaxCycles: 5000,
	}
}

// LoadConfig reads a yaml configuration file. A missing path returns the
// defaults; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %v", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects geometries the host bus cannot address.
func (c *Config) Validate() error {
	if c.ImemDepth <= 0 {
		return fmt.Errorf("imem-depth must be positive, got %d", c.ImemDepth)
	}
	if c.DmemWords <= 0 {
		return fmt.Errorf("dmem-words must be positive, got %d", c.DmemWords)
	}
	if c.MaxCycles <= 0 {
		return fmt.Errorf("max-cycles must be positive, got %d", c.MaxCycles)
	}
	return nil
}
