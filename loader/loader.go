// Package loader is a thin textual assembler: it turns `;`-terminated
// assembly source into an insts.Program. It is deliberately small — the
// pipeline backend is the point of this module, not the front-end
// syntax — but it is a real, tested parser rather than a stub.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/ooopipe/insts"
)

// DecodeError reports a source-level problem: an unknown mnemonic, a
// malformed operand, an unresolved label, or the rejected three-operand
// MOV form.
type DecodeError struct {
	Line   int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Load reads and assembles the file at path.
func Load(path string) (*insts.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	return Parse(string(data))
}

// statement is one `;`-terminated chunk of source, tagged with the
// 1-based line it started on.
type statement struct {
	text string
	line int
}

// Parse assembles source text into a program. Assembly proceeds in two
// passes, following the original loader's shape (original_source
// loader/loader.rs): the first pass records every label's resolved
// address (instruction index for code labels, data-segment address for
// `.data` words) without decoding operands; the second pass decodes
// instructions, resolving label and address-of references against the
// table the first pass built.
func Parse(source string) (*insts.Program, error) {
	lines := splitLines(source)

	labels := map[string]uint64{}
	dataAddr := map[string]uint64{}
	var dataWords []insts.DataWord
	var codeLines []statement
	global := ""
	inData := false

	instrIndex := uint64(0)
	for _, raw := range lines {
		text, lineNo := raw.text, raw.line
		text = stripComment(text)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch {
		case text == ".data":
			inData = true
			continue
		case text == ".text":
			inData = false
			continue
		case strings.HasPrefix(text, ".global"):
			fields := strings.Fields(text)
			if len(fields) != 2 {
				return nil, &DecodeError{Line: lineNo, Reason: "`.global` takes exactly one label"}
			}
			global = fields[1]
			continue
		}

		if inData {
			name, value, err := parseDataLine(text, lineNo)
			if err != nil {
				return nil, err
			}
			dataAddr[name] = uint64(len(dataWords))
			dataWords = append(dataWords, insts.DataWord{Name: name, Value: value, Addr: uint64(len(dataWords))})
			continue
		}

		if label, rest, ok := splitLabel(text); ok {
			if _, dup := labels[label]; dup {
				return nil, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("duplicate label %q", label)}
			}
			labels[label] = instrIndex
			text = strings.TrimSpace(rest)
			if text == "" {
				continue
			}
		}

		for _, stmt := range splitStatements(text, lineNo) {
			codeLines = append(codeLines, stmt)
			instrIndex++
		}
	}

	prog := &insts.Program{Data: dataWords}
	for _, stmt := range codeLines {
		in, err := decodeInstruction(stmt.text, stmt.line, uint64(len(prog.Instructions)), labels, dataAddr)
		if err != nil {
			return nil, err
		}
		prog.Instructions = append(prog.Instructions, in)
	}

	if global != "" {
		addr, ok := labels[global]
		if !ok {
			return nil, &DecodeError{Line: 0, Reason: fmt.Sprintf("undefined entry label %q", global)}
		}
		prog.EntryPoint = addr
	}

	return prog, nil
}

func splitLines(source string) []statement {
	var out []statement
	sc := bufio.NewScanner(strings.NewReader(source))
	n := 0
	for sc.Scan() {
		n++
		out = append(out, statement{text: sc.Text(), line: n})
	}
	return out
}

func stripComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		return s[:i]
	}
	return s
}

// splitLabel detects a leading `name:` on a line and returns the label
// and whatever trailing text follows it on the same line.
func splitLabel(s string) (label string, rest string, ok bool) {
	i := strings.Index(s, ":")
	if i < 0 {
		return "", s, false
	}
	candidate := strings.TrimSpace(s[:i])
	if candidate == "" || strings.ContainsAny(candidate, " \t,;") {
		return "", s, false
	}
	return candidate, s[i+1:], true
}

// splitStatements splits a line on `;`, discarding empty trailing
// fragments (the common case of a line ending in its own terminator).
func splitStatements(s string, lineNo int) []statement {
	parts := strings.Split(s, ";")
	var out []statement
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, statement{text: p, line: lineNo})
	}
	return out
}

func parseDataLine(text string, lineNo int) (name string, value uint64, err error) {
	label, rest, ok := splitLabel(text)
	if !ok {
		return "", 0, &DecodeError{Line: lineNo, Reason: "expected `name: .word <value>` in .data section"}
	}
	fields := strings.Fields(strings.TrimSpace(rest))
	if len(fields) != 2 || fields[0] != ".word" {
		return "", 0, &DecodeError{Line: lineNo, Reason: "expected `.word <value>`"}
	}
	v, err := parseIntLiteral(fields[1])
	if err != nil {
		return "", 0, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("bad .word literal %q", fields[1])}
	}
	return label, v, nil
}

// parseIntLiteral accepts decimal and 0x-prefixed hexadecimal, signed
// or unsigned, widened to a full 64-bit word: `.word` values are not
// truncated to 32 bits.
func parseIntLiteral(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		return uint64(v), err
	}
	return strconv.ParseUint(s, 0, 64)
}
