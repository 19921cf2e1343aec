package chip8

import "fmt"

const (
	RegisterCount = 16
	StackDepth    = 16
	FlagRegister  = 0xF

	registerBits = 4
	iPcBits      = 16
	opcodeSize   = 2
)

// CPUState is a copy of the CPU registers.
type CPUState struct {
	V     [RegisterCount]uint8
	I     uint16
	PC    uint16
	DT    uint8
	ST    uint8
	Stack []uint16
}

// CPU holds the registers, timers and call stack.
type CPU struct {
	v     [RegisterCount]uint8 // registers
	i     uint16               // index register
	pc    uint16               // program counter
	dt    uint8                // delay timer
	st    uint8                // sound timer
	sp    uint8                // number of entries on the stack
	stack [StackDepth]uint16
}

func NewCPU() *CPU {
	return &CPU{pc: ProgramOffset}
}

func (c *CPU) Register(x uint8) (uint8, error) {
	if err := checkValSize(uint32(x), registerBits, ErrRegisterIndexOutOfRange); err != nil {
		return 0, err
	}
	return c.v[x], nil
}

// SetRegister stores val modulo 256 in register x.
func (c *CPU) SetRegister(x uint8, val uint16) error {
	if err := checkValSize(uint32(x), registerBits, ErrRegisterIndexOutOfRange); err != nil {
		return err
	}
	c.v[x] = uint8(val)
	return nil
}

func (c *CPU) setFlag(b bool) {
	if b {
		c.v[FlagRegister] = 1
	} else {
		c.v[FlagRegister] = 0
	}
}

func (c *CPU) I() uint16 {
	return c.i
}

func (c *CPU) SetI(val uint32) error {
	if err := checkValSize(val, iPcBits, ErrValueOutOfRange); err != nil {
		return fmt.Errorf("index register: %w", err)
	}
	c.i = uint16(val)
	return nil
}

func (c *CPU) PC() uint16 {
	return c.pc
}

func (c *CPU) SetPC(val uint32) error {
	if err := checkValSize(val, iPcBits, ErrValueOutOfRange); err != nil {
		return fmt.Errorf("program counter: %w", err)
	}
	c.pc = uint16(val)
	return nil
}

// AdvancePC moves the program counter past one instruction.
func (c *CPU) AdvancePC() error {
	return c.SetPC(uint32(c.pc) + opcodeSize)
}

func (c *CPU) DelayTimer() uint8 {
	return c.dt
}

func (c *CPU) SetDelayTimer(v uint8) {
	c.dt = v
}

func (c *CPU) SoundTimer() uint8 {
	return c.st
}

func (c *CPU) SetSoundTimer(v uint8) {
	c.st = v
}

// Tick decrements both timers if they are not zero.
func (c *CPU) Tick() {
	if c.dt > 0 {
		c.dt--
	}
	if c.st > 0 {
		c.st--
	}
}

func (c *CPU) Push(addr uint16) error {
	if c.sp == StackDepth {
		return fmt.Errorf("%w: return address %03X", ErrStackOverflow, addr)
	}
	c.stack[c.sp] = addr
	c.sp++
	return nil
}

func (c *CPU) Pop() (uint16, error) {
	addr, err := c.Peek()
	if err != nil {
		return 0, err
	}
	c.sp--
	return addr, nil
}

func (c *CPU) Peek() (uint16, error) {
	if c.sp == 0 {
		return 0, ErrStackUnderflow
	}
	return c.stack[c.sp-1], nil
}

// Depth is the number of return addresses on the stack.
func (c *CPU) Depth() int {
	return int(c.sp)
}

func (c *CPU) Snapshot() CPUState {
	s := CPUState{
		V:     c.v,
		I:     c.i,
		PC:    c.pc,
		DT:    c.dt,
		ST:    c.st,
		Stack: make([]uint16, c.sp),
	}
	copy(s.Stack, c.stack[:c.sp])
	return s
}
