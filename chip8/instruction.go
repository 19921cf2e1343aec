package chip8

import "fmt"

// Op identifies a decoded instruction class.
type Op int

const (
	OpUnknown Op = iota
	OpSys        // 0NNN machine code routine, ignored
	OpCls        // 00E0
	OpRet        // 00EE
	OpJp         // 1NNN
	OpCall       // 2NNN
	OpSeImm      // 3XNN
	OpSneImm     // 4XNN
	OpSeReg      // 5XY0
	OpLdImm      // 6XNN
	OpAddImm     // 7XNN
	OpLdReg      // 8XY0
	OpOr         // 8XY1
	OpAnd        // 8XY2
	OpXor        // 8XY3
	OpAddReg     // 8XY4
	OpSub        // 8XY5
	OpShr        // 8XY6
	OpSubn       // 8XY7
	OpShl        // 8XYE
	OpSneReg     // 9XY0
	OpLdI        // ANNN
	OpJpV0       // BNNN
	OpRnd        // CXNN
	OpDrw        // DXYN
	OpSkp        // EX9E
	OpSknp       // EXA1
	OpLdVxDT     // FX07
	OpLdVxK      // FX0A
	OpLdDTVx     // FX15
	OpLdSTVx     // FX18
	OpAddI       // FX1E
	OpLdF        // FX29
	OpLdB        // FX33
	OpLdIVx      // FX55
	OpLdVxI      // FX65
)

// Instruction is an opcode word split into its class and operand fields.
type Instruction struct {
	Op   Op
	Word uint16
	X    uint8
	Y    uint8
	N    uint8
	NN   uint8
	NNN  uint16
}

// Decode splits an instruction word. Words that match no instruction decode
// to OpUnknown.
func Decode(word uint16) Instruction {
	nnn := word & 0x0FFF
	ins := Instruction{
		Word: word,
		NNN:  nnn,
		NN:   uint8(nnn & 0xff),
		X:    uint8((nnn >> 8) & 0xf),
		Y:    uint8((nnn >> 4) & 0xf),
		N:    uint8(nnn & 0xf),
	}

	switch word & 0xF000 {
	case 0x0000:
		switch word {
		case 0x00E0:
			ins.Op = OpCls
		case 0x00EE:
			ins.Op = OpRet
		default:
			ins.Op = OpSys
		}
	case 0x1000:
		ins.Op = OpJp
	case 0x2000:
		ins.Op = OpCall
	case 0x3000:
		ins.Op = OpSeImm
	case 0x4000:
		ins.Op = OpSneImm
	case 0x5000:
		ins.Op = OpSeReg
	case 0x6000:
		ins.Op = OpLdImm
	case 0x7000:
		ins.Op = OpAddImm
	case 0x8000:
		switch ins.N {
		case 0x0:
			ins.Op = OpLdReg
		case 0x1:
			ins.Op = OpOr
		case 0x2:
			ins.Op = OpAnd
		case 0x3:
			ins.Op = OpXor
		case 0x4:
			ins.Op = OpAddReg
		case 0x5:
			ins.Op = OpSub
		case 0x6:
			ins.Op = OpShr
		case 0x7:
			ins.Op = OpSubn
		case 0xE:
			ins.Op = OpShl
		}
	case 0x9000:
		ins.Op = OpSneReg
	case 0xA000:
		ins.Op = OpLdI
	case 0xB000:
		ins.Op = OpJpV0
	case 0xC000:
		ins.Op = OpRnd
	case 0xD000:
		ins.Op = OpDrw
	case 0xE000:
		switch ins.NN {
		case 0x9E:
			ins.Op = OpSkp
		case 0xA1:
			ins.Op = OpSknp
		}
	case 0xF000:
		switch ins.NN {
		case 0x07:
			ins.Op = OpLdVxDT
		case 0x0A:
			ins.Op = OpLdVxK
		case 0x15:
			ins.Op = OpLdDTVx
		case 0x18:
			ins.Op = OpLdSTVx
		case 0x1E:
			ins.Op = OpAddI
		case 0x29:
			ins.Op = OpLdF
		case 0x33:
			ins.Op = OpLdB
		case 0x55:
			ins.Op = OpLdIVx
		case 0x65:
			ins.Op = OpLdVxI
		}
	}
	return ins
}

// Operands formats the operand list in assembler syntax.
func (ins Instruction) Operands() string {
	switch ins.Op {
	case OpSys, OpJp, OpCall:
		return fmt.Sprintf("#%03X", ins.NNN)
	case OpSeImm, OpSneImm, OpLdImm, OpAddImm, OpRnd:
		return fmt.Sprintf("V%X,#%02X", ins.X, ins.NN)
	case OpSeReg, OpSneReg, OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpSubn:
		return fmt.Sprintf("V%X,V%X", ins.X, ins.Y)
	case OpShr, OpShl, OpSkp, OpSknp:
		return fmt.Sprintf("V%X", ins.X)
	case OpLdI:
		return fmt.Sprintf("I,#%03X", ins.NNN)
	case OpJpV0:
		return fmt.Sprintf("V0,#%03X", ins.NNN)
	case OpDrw:
		return fmt.Sprintf("V%X,V%X,%d", ins.X, ins.Y, ins.N)
	case OpLdVxDT:
		return fmt.Sprintf("V%X,DT", ins.X)
	case OpLdVxK:
		return fmt.Sprintf("V%X,K", ins.X)
	case OpLdDTVx:
		return fmt.Sprintf("DT,V%X", ins.X)
	case OpLdSTVx:
		return fmt.Sprintf("ST,V%X", ins.X)
	case OpAddI:
		return fmt.Sprintf("I,V%X", ins.X)
	case OpLdF:
		return fmt.Sprintf("F,V%X", ins.X)
	case OpLdB:
		return fmt.Sprintf("B,V%X", ins.X)
	case OpLdIVx:
		return fmt.Sprintf("[I],V%X", ins.X)
	case OpLdVxI:
		return fmt.Sprintf("V%X,[I]", ins.X)
	}
	return ""
}
