package dem

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

type instructionKind uint8

const (
	instError instructionKind = iota
	instDetector
	instLogicalObservable
	instShiftDetectors
	instRepeat
)

type targetKind uint8

const (
	targetDetector targetKind = iota
	targetObservable
	targetSeparator
)

type target struct {
	kind  targetKind
	index uint64
}

type instruction struct {
	kind    instructionKind
	line    int
	args    []float64
	targets []target
	// shift is the detector offset of shift_detectors.
	shift uint64
	// count and body describe a repeat block.
	count uint64
	body  []instruction
}

// maxLineBytes bounds a single DEM line; large circuits emit long error lines.
const maxLineBytes = 16 << 20

type parser struct {
	sc   *bufio.Scanner
	line int
}

func parse(r io.Reader) ([]instruction, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	p := &parser{sc: sc}

	body, closed, err := p.block()
	if err != nil {
		return nil, err
	}
	if closed {
		return nil, malformed(p.line, "unexpected '}'")
	}
	return body, nil
}

// block reads instructions until EOF or a closing brace.
// closed reports whether the block ended at '}'.
func (p *parser) block() ([]instruction, bool, error) {
	var out []instruction
	for p.sc.Scan() {
		p.line++
		text := p.sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if text == "}" {
			return out, true, nil
		}

		opensBlock := false
		if strings.HasSuffix(text, "{") {
			opensBlock = true
			text = strings.TrimSpace(strings.TrimSuffix(text, "{"))
		}

		inst, err := p.instruction(text)
		if err != nil {
			return nil, false, err
		}

		if inst.kind == instRepeat {
			if !opensBlock {
				return nil, false, malformed(inst.line, "repeat block must open with '{'")
			}
			line := inst.line
			body, closed, err := p.block()
			if err != nil {
				return nil, false, err
			}
			if !closed {
				return nil, false, malformed(line, "repeat block is never closed")
			}
			inst.body = body
		} else if opensBlock {
			return nil, false, malformed(inst.line, "only repeat may open a block")
		}
		out = append(out, inst)
	}
	if err := p.sc.Err(); err != nil {
		return nil, false, malformedCause(p.line, err, "read failed")
	}
	return out, false, nil
}

func (p *parser) instruction(text string) (instruction, error) {
	inst := instruction{line: p.line}

	nameEnd := strings.IndexAny(text, "([ \t")
	if nameEnd < 0 {
		nameEnd = len(text)
	}
	name := strings.ToLower(text[:nameEnd])
	rest := text[nameEnd:]

	// Tags such as error[leakage](0.1) carry no decoding meaning.
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return inst, malformed(p.line, "unterminated tag")
		}
		rest = rest[end+1:]
	}

	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return inst, malformed(p.line, "unterminated argument list")
		}
		args, err := parseArgs(rest[1:end])
		if err != nil {
			return inst, malformedCause(p.line, err, "invalid argument list %q", rest[1:end])
		}
		inst.args = args
		rest = rest[end+1:]
	}
	fields := strings.Fields(rest)

	switch name {
	case "error":
		inst.kind = instError
		if len(inst.args) != 1 {
			return inst, malformed(p.line, "error takes exactly one probability, got %d arguments", len(inst.args))
		}
	case "detector":
		inst.kind = instDetector
	case "logical_observable":
		inst.kind = instLogicalObservable
		if len(inst.args) != 0 {
			return inst, malformed(p.line, "logical_observable takes no arguments")
		}
	case "shift_detectors":
		inst.kind = instShiftDetectors
		if len(fields) != 1 {
			return inst, malformed(p.line, "shift_detectors takes exactly one offset")
		}
		n, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return inst, malformedCause(p.line, err, "invalid detector shift %q", fields[0])
		}
		inst.shift = n
		return inst, nil
	case "repeat":
		inst.kind = instRepeat
		if len(inst.args) != 0 || len(fields) != 1 {
			return inst, malformed(p.line, "repeat takes exactly one count")
		}
		n, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return inst, malformedCause(p.line, err, "invalid repeat count %q", fields[0])
		}
		inst.count = n
		return inst, nil
	default:
		return inst, malformed(p.line, "unknown instruction %q", name)
	}

	targets, err := p.targets(fields)
	if err != nil {
		return inst, err
	}
	inst.targets = targets

	switch inst.kind {
	case instDetector:
		for _, t := range targets {
			if t.kind != targetDetector {
				return inst, malformed(p.line, "detector only accepts D targets")
			}
		}
	case instLogicalObservable:
		for _, t := range targets {
			if t.kind != targetObservable {
				return inst, malformed(p.line, "logical_observable only accepts L targets")
			}
		}
	}
	return inst, nil
}

func (p *parser) targets(fields []string) ([]target, error) {
	out := make([]target, 0, len(fields))
	for _, f := range fields {
		if f == "^" {
			out = append(out, target{kind: targetSeparator})
			continue
		}
		if len(f) < 2 {
			return nil, malformed(p.line, "invalid target %q", f)
		}
		var kind targetKind
		switch f[0] {
		case 'D', 'd':
			kind = targetDetector
		case 'L', 'l':
			kind = targetObservable
		default:
			return nil, malformed(p.line, "invalid target %q", f)
		}
		n, err := strconv.ParseUint(f[1:], 10, 64)
		if err != nil {
			return nil, malformedCause(p.line, err, "invalid target %q", f)
		}
		out = append(out, target{kind: kind, index: n})
	}
	return out, nil
}

func parseArgs(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
