package chip8

import (
	"fmt"
	"strings"

	cpuchip8 "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

const DefaultTraceDepth = 16

// TraceEntry is one executed instruction.
type TraceEntry struct {
	PC       uint16
	Word     uint16
	Mnemonic string
}

func (e TraceEntry) String() string {
	return fmt.Sprintf("%03X-%04X %s", e.PC, e.Word, e.Mnemonic)
}

// Trace keeps the most recently executed instructions.
type Trace struct {
	entries []TraceEntry
	index   int
	count   int
}

func newTrace(depth int) *Trace {
	if depth < 0 {
		depth = 0
	}
	return &Trace{entries: make([]TraceEntry, depth)}
}

func (t *Trace) add(e TraceEntry) {
	if len(t.entries) == 0 {
		return
	}
	t.entries[t.index] = e
	t.index = (t.index + 1) % len(t.entries)
	if t.count < len(t.entries) {
		t.count++
	}
}

// History returns the recorded entries, oldest first.
func (t *Trace) History() []TraceEntry {
	out := make([]TraceEntry, 0, t.count)
	start := t.index - t.count
	if start < 0 {
		start += len(t.entries)
	}
	for i := 0; i < t.count; i++ {
		out = append(out, t.entries[(start+i)%len(t.entries)])
	}
	return out
}

// Disassemble renders a decoded instruction in assembler syntax. Words that
// are not instructions are shown as data.
func Disassemble(ins Instruction) string {
	name := instructionName(ins.Word)
	if name == "" || ins.Op == OpUnknown {
		return fmt.Sprintf("DW   #%04X", ins.Word)
	}
	operands := ins.Operands()
	if operands == "" {
		return name
	}
	return fmt.Sprintf("%-4s %s", name, operands)
}

func instructionName(word uint16) string {
	for _, op := range cpuchip8.Opcodes[int(word>>12)] {
		if op.Instruction == nil {
			continue
		}
		if op.Info.Mask&word == op.Info.Value {
			return strings.ToUpper(op.Instruction.Name)
		}
	}
	return ""
}
