package chip8

import (
	"fmt"
	"io"
)

const (
	MemorySize          = 4096
	AddressBits         = 12
	FontOffset          = 0x050
	CharacterSpriteSize = 5
	ProgramOffset       = 0x200
	MaxRomSize          = MemorySize - ProgramOffset
)

var characterSprites = [16 * CharacterSpriteSize]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Glyph returns the font bitmap of a hex digit.
func Glyph(digit uint8) [CharacterSpriteSize]byte {
	var g [CharacterSpriteSize]byte
	start := int(digit&0xf) * CharacterSpriteSize
	copy(g[:], characterSprites[start:])
	return g
}

// Memory is the 4 KiB address space of the machine. The font occupies
// FontOffset and programs are loaded at ProgramOffset.
type Memory struct {
	ram     [MemorySize]uint8
	romSize int
}

// NewMemory loads the font and then the whole of rom into a new address space.
func NewMemory(rom io.Reader) (*Memory, error) {
	if rom == nil {
		return nil, fmt.Errorf("%w: no rom given", ErrRomLoad)
	}

	m := &Memory{}
	copy(m.ram[FontOffset:], characterSprites[:])

	// read one byte past the capacity so oversized roms are detected
	b, err := io.ReadAll(io.LimitReader(rom, MaxRomSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRomLoad, err)
	}
	if len(b) > MaxRomSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrRomTooLarge, MaxRomSize)
	}

	m.romSize = copy(m.ram[ProgramOffset:], b)
	return m, nil
}

// RomSize is the number of bytes copied into the program region.
func (m *Memory) RomSize() int {
	return m.romSize
}

func (m *Memory) Read(addr uint16) (uint8, error) {
	if err := checkValSize(uint32(addr), AddressBits, ErrAddressOutOfRange); err != nil {
		return 0, err
	}
	return m.ram[addr], nil
}

func (m *Memory) Write(addr uint16, v uint8) error {
	if err := checkValSize(uint32(addr), AddressBits, ErrAddressOutOfRange); err != nil {
		return err
	}
	m.ram[addr] = v
	return nil
}

// ReadSlice returns a copy of n bytes starting at addr. Every address of the
// range must be valid.
func (m *Memory) ReadSlice(addr uint16, n int) ([]uint8, error) {
	if n <= 0 {
		return []uint8{}, nil
	}
	end := uint32(addr) + uint32(n)
	if err := checkValSize(end-1, AddressBits, ErrAddressOutOfRange); err != nil {
		return nil, err
	}
	out := make([]uint8, n)
	copy(out, m.ram[addr:end])
	return out, nil
}

// FontAddress returns the address of the glyph for a hex digit.
func (m *Memory) FontAddress(digit uint8) (uint16, error) {
	if err := checkValSize(uint32(digit), 4, ErrValueOutOfRange); err != nil {
		return 0, err
	}
	return FontOffset + uint16(digit)*CharacterSpriteSize, nil
}
