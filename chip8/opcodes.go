package chip8

import (
	"context"

	"github.com/retroenv/retrogolib/log"
)

func (m *Machine) execute(ctx context.Context, ins Instruction, screen Screen, input Input) error {
	c := m.cpu

	vx, err := c.Register(ins.X)
	if err != nil {
		return err
	}
	vy, err := c.Register(ins.Y)
	if err != nil {
		return err
	}

	switch ins.Op {
	case OpCls:
		m.display.Clear()

	case OpRet:
		r, err := c.Pop()
		if err != nil {
			return err
		}
		return c.SetPC(uint32(r))

	case OpJp:
		return c.SetPC(uint32(ins.NNN))

	case OpCall:
		if err := c.Push(c.PC() + opcodeSize); err != nil {
			return err
		}
		return c.SetPC(uint32(ins.NNN))

	case OpSeImm:
		if vx == ins.NN {
			err = c.AdvancePC()
		}

	case OpSneImm:
		if vx != ins.NN {
			err = c.AdvancePC()
		}

	case OpSeReg:
		if vx == vy {
			err = c.AdvancePC()
		}

	case OpLdImm:
		err = c.SetRegister(ins.X, uint16(ins.NN))

	case OpAddImm: // carry flag is not changed
		err = c.SetRegister(ins.X, uint16(vx)+uint16(ins.NN))

	case OpLdReg:
		err = c.SetRegister(ins.X, uint16(vy))

	case OpOr:
		err = c.SetRegister(ins.X, uint16(vx|vy))

	case OpAnd:
		err = c.SetRegister(ins.X, uint16(vx&vy))

	case OpXor:
		err = c.SetRegister(ins.X, uint16(vx^vy))

	// the flag is written last so VF as destination holds the flag
	case OpAddReg:
		sum := uint16(vx) + uint16(vy)
		err = c.SetRegister(ins.X, sum)
		c.setFlag(sum > 0xff)

	case OpSub:
		err = c.SetRegister(ins.X, uint16(vx-vy))
		c.setFlag(vx >= vy)

	case OpShr:
		err = c.SetRegister(ins.X, uint16(vx>>1))
		c.setFlag(vx&0x01 == 1)

	case OpSubn:
		err = c.SetRegister(ins.X, uint16(vy-vx))
		c.setFlag(vy >= vx)

	case OpShl:
		err = c.SetRegister(ins.X, uint16(vx)<<1)
		c.setFlag(vx>>7 == 1)

	case OpSneReg:
		if vx != vy {
			err = c.AdvancePC()
		}

	case OpLdI:
		err = c.SetI(uint32(ins.NNN))

	case OpJpV0:
		v0, err := c.Register(0)
		if err != nil {
			return err
		}
		return c.SetPC(uint32(ins.NNN) + uint32(v0))

	case OpRnd:
		err = c.SetRegister(ins.X, uint16(m.random()&ins.NN))

	case OpDrw:
		sprite, err := m.mem.ReadSlice(c.I(), int(ins.N))
		if err != nil {
			return err
		}
		c.setFlag(m.display.AttachSprite(sprite, vx, vy))

	case OpSkp:
		pressed, err := m.keypad.IsPressed(vx)
		if err != nil {
			return err
		}
		if pressed {
			if err := c.AdvancePC(); err != nil {
				return err
			}
		}

	case OpSknp:
		pressed, err := m.keypad.IsPressed(vx)
		if err != nil {
			return err
		}
		if !pressed {
			if err := c.AdvancePC(); err != nil {
				return err
			}
		}

	case OpLdVxDT:
		err = c.SetRegister(ins.X, uint16(c.DelayTimer()))

	case OpLdVxK:
		if input == nil {
			return ErrNoInput
		}
		key, err := m.waitKey(ctx, screen, input)
		if err != nil {
			return err
		}
		if err := c.SetRegister(ins.X, uint16(key)); err != nil {
			return err
		}

	case OpLdDTVx:
		c.SetDelayTimer(vx)

	case OpLdSTVx:
		c.SetSoundTimer(vx)

	case OpAddI:
		err = c.SetI(uint32(c.I()) + uint32(vx))

	case OpLdF:
		addr, err := m.mem.FontAddress(vx)
		if err != nil {
			return err
		}
		if err := c.SetI(uint32(addr)); err != nil {
			return err
		}

	case OpLdB:
		digits := [3]uint8{vx / 100, (vx % 100) / 10, vx % 10}
		for i, d := range digits {
			if err := m.writeIndexed(i, d); err != nil {
				return err
			}
		}

	case OpLdIVx:
		for i := 0; i <= int(ins.X); i++ {
			v, err := c.Register(uint8(i))
			if err != nil {
				return err
			}
			if err := m.writeIndexed(i, v); err != nil {
				return err
			}
		}

	case OpLdVxI:
		for i := 0; i <= int(ins.X); i++ {
			v, err := m.readIndexed(i)
			if err != nil {
				return err
			}
			if err := c.SetRegister(uint8(i), uint16(v)); err != nil {
				return err
			}
		}

	default:
		m.logger.Debug("Ignoring instruction",
			log.Hex("address", c.PC()),
			log.Hex("opcode", ins.Word))
	}

	if err != nil {
		return err
	}
	return c.AdvancePC()
}

// indexAddress returns I+offset.
func (m *Machine) indexAddress(offset int) (uint16, error) {
	a := uint32(m.cpu.I()) + uint32(offset)
	if err := checkValSize(a, AddressBits, ErrAddressOutOfRange); err != nil {
		return 0, err
	}
	return uint16(a), nil
}

func (m *Machine) writeIndexed(offset int, v uint8) error {
	addr, err := m.indexAddress(offset)
	if err != nil {
		return err
	}
	return m.mem.Write(addr, v)
}

func (m *Machine) readIndexed(offset int) (uint8, error) {
	addr, err := m.indexAddress(offset)
	if err != nil {
		return 0, err
	}
	return m.mem.Read(addr)
}
