package chip8

const KeyCount = 16

// Keypad holds the pressed state of the 16 hex keys.
type Keypad struct {
	keys [KeyCount]bool
}

func (k *Keypad) Press(key uint8) error {
	if err := checkValSize(uint32(key), 4, ErrKeyIndexOutOfRange); err != nil {
		return err
	}
	k.keys[key] = true
	return nil
}

func (k *Keypad) Release(key uint8) error {
	if err := checkValSize(uint32(key), 4, ErrKeyIndexOutOfRange); err != nil {
		return err
	}
	k.keys[key] = false
	return nil
}

func (k *Keypad) IsPressed(key uint8) (bool, error) {
	if err := checkValSize(uint32(key), 4, ErrKeyIndexOutOfRange); err != nil {
		return false, err
	}
	return k.keys[key], nil
}

// Pressed lists the keys currently held down in ascending order.
func (k *Keypad) Pressed() []uint8 {
	var held []uint8
	for i, v := range k.keys {
		if v {
			held = append(held, uint8(i))
		}
	}
	return held
}
