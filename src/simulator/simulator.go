package simulator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/coronado2/ee533-gpu/src/isa"
	"github.com/coronado2/ee533-gpu/src/misc"
)

// LoadProgramWords reads a program from disk. Files ending in .mem are
// parsed as $readmemh images; anything else is assembled as source.
func LoadProgramWords(path string) ([]uint32, error) {
	if strings.EqualFold(filepath.Ext(path), ".mem") {
		return isa.ReadMem(path)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return isa.ParseAsm(string(text))
}

// Simulator drives one platform through a full run: load, release,
// cycle to completion, report.
type Simulator struct {
	platform *Platform
}

// NewSimulator builds a simulator around a fresh platform.
func NewSimulator(config *misc.Config) *Simulator {
	return &Simulator{platform: NewPlatform(config)}
}

// Platform exposes the underlying platform for host-side setup.
func (s *Simulator) Platform() *Platform {
	return s.platform
}

// Init loads a program file into instruction memory while the platform
// is still in reset.
func (s *Simulator) Init(programPath string) error {
	words, err := LoadProgramWords(programPath)
	if err != nil {
		return err
	}
	return s.platform.LoadProgram(words)
}

// Run releases reset and cycles until halt or the cycle bound.
func (s *Simulator) Run() error {
	return s.platform.Run()
}

// Fini logs the end-of-run status and register state.
func (s *Simulator) Fini() {
	log := misc.PlatformLogger()
	log.Infof("halted=%v pc=%d cycles=%d last_wb=%08x_%08x",
		s.platform.Halted(), s.platform.PC(), s.platform.CycleCount(),
		s.platform.LastWritebackHi(), s.platform.LastWritebackLo())
	s.platform.DumpRegs()
}
