package isa

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Hand-written assembly syntax, case-insensitive, '#' and ';' comments:
//
//	VADD  rd, rs1, rs2
//	VSUB  rd, rs1, rs2
//	VMUL  rd, rs1, rs2
//	FMA   rd, rs1, rs2    ; rs2 doubles as the accumulator
//	RELU  rd, rs1
//	LD    rd, [rs1]
//	ST    [rs1], rs2
//	HALT

var (
	haltRe  = regexp.MustCompile(`(?i)^HALT\b`)
	loadRe  = regexp.MustCompile(`(?i)^LD\s+r(\d+)\s*,\s*\[\s*r(\d+)\s*\]$`)
	storeRe = regexp.MustCompile(`(?i)^ST\s+\[\s*r(\d+)\s*\]\s*,\s*r(\d+)$`)
	reluRe  = regexp.MustCompile(`(?i)^RELU\s+r(\d+)\s*,\s*r(\d+)$`)
	threeRe = regexp.MustCompile(`(?i)^(\w+)\s+r(\d+)\s*,\s*r(\d+)\s*,\s*r(\d+)$`)
)

func parseReg(s string, lineno int) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= NumRegs {
		return 0, fmt.Errorf("isa: line %d: register r%s out of range", lineno, s)
	}
	return uint8(n), nil
}

// ParseAsm assembles hand-written assembly text into instruction words.
func ParseAsm(text string) ([]uint32, error) {
	var words []uint32

	for lineno, raw := range strings.Split(text, "\n") {
		lineno++
		line := raw
		if i := strings.IndexAny(line, "#;"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case haltRe.MatchString(line):
			words = append(words, HaltWord)

		case loadRe.MatchString(line):
			m := loadRe.FindStringSubmatch(line)
			rd, err := parseReg(m[1], lineno)
			if err != nil {
				return nil, err
			}
			rs1, err := parseReg(m[2], lineno)
			if err != nil {
				return nil, err
			}
			words = append(words, Encode(OpLD, NaturalDtype(OpLD), rd, rs1, 0))

		case storeRe.MatchString(line):
			m := storeRe.FindStringSubmatch(line)
			rs1, err := parseReg(m[1], lineno)
			if err != nil {
				return nil, err
			}
			rs2, err := parseReg(m[2], lineno)
			if err != nil {
				return nil, err
			}
			words = append(words, Encode(OpST, NaturalDtype(OpST), 0, rs1, rs2))

		case reluRe.MatchString(line):
			m := reluRe.FindStringSubmatch(line)
			rd, err := parseReg(m[1], lineno)
			if err != nil {
				return nil, err
			}
			rs1, err := parseReg(m[2], lineno)
			if err != nil {
				return nil, err
			}
			words = append(words, Encode(OpRELU, NaturalDtype(OpRELU), rd, rs1, 0))

		case threeRe.MatchString(line):
			m := threeRe.FindStringSubmatch(line)
			opcode, ok := OpcodeFromName(strings.ToUpper(m[1]))
			if !ok {
				return nil, fmt.Errorf("isa: line %d: unknown mnemonic %q", lineno, m[1])
			}
			rd, err := parseReg(m[2], lineno)
			if err != nil {
				return nil, err
			}
			rs1, err := parseReg(m[3], lineno)
			if err != nil {
				return nil, err
			}
			rs2, err := parseReg(m[4], lineno)
			if err != nil {
				return nil, err
			}
			words = append(words, Encode(opcode, NaturalDtype(opcode), rd, rs1, rs2))

		default:
			return nil, fmt.Errorf("isa: line %d: unrecognised: %s", lineno, line)
		}
	}

	return words, nil
}

// PadProgram extends a program image to depth words, padding with HALT so
// a runaway PC lands on a halt instead of executing stale memory.
func PadProgram(words []uint32, depth int) ([]uint32, error) {
	if len(words) > depth {
		return nil, fmt.Errorf("isa: program of %d words exceeds imem depth %d", len(words), depth)
	}
	image := make([]uint32, depth)
	copy(image, words)
	for i := len(words); i < depth; i++ {
		image[i] = HaltWord
	}
	return image, nil
}

// WriteMem writes a HALT-padded program image in $readmemh format: one
// 8-hex-digit word per line.
func WriteMem(words []uint32, depth int, path string) error {
	image, err := PadProgram(words, depth)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, w := range image {
		fmt.Fprintf(&b, "%08X\n", w)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// ReadMem loads a $readmemh-format program image. Blank lines and "//"
// comments are skipped.
func ReadMem(path string) ([]uint32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []uint32
	scanner := bufio.NewScanner(file)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		w, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("isa: %s line %d: bad word %q", path, lineno, line)
		}
		words = append(words, uint32(w))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// WriteListing writes a human-readable disassembly listing alongside a
// .mem image.
func WriteListing(words []uint32, path string) error {
	var b strings.Builder
	for i, w := range words {
		fmt.Fprintf(&b, "[%3d]  %08X   %s\n", i, w, Disasm(w))
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
