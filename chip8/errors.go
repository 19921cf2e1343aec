package chip8

import (
	"errors"
	"fmt"
)

var (
	ErrAddressOutOfRange       = errors.New("address out of range")
	ErrRegisterIndexOutOfRange = errors.New("register index out of range")
	ErrKeyIndexOutOfRange      = errors.New("key index out of range")
	ErrValueOutOfRange         = errors.New("value out of range")
	ErrStackUnderflow          = errors.New("stack underflow")
	ErrStackOverflow           = errors.New("stack overflow")
	ErrRomLoad                 = errors.New("unable to load rom")
	ErrRomTooLarge             = errors.New("rom too large")
)

// ExecError reports the instruction that was executing when a fault occurred.
type ExecError struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("executing %04X at %03X: %v", e.Opcode, e.PC, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// checkValSize returns wrapped err if val does not fit into an unsigned
// integer of the given number of bits.
func checkValSize(val uint32, bits uint8, err error) error {
	if bits > 16 {
		return fmt.Errorf("%w: width of %d bits", ErrValueOutOfRange, bits)
	}
	if val > (1<<bits)-1 {
		return fmt.Errorf("%w: %#x does not fit in %d bits", err, val, bits)
	}
	return nil
}
