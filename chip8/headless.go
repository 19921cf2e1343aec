package chip8

import (
	"bufio"
	"io"
	"time"
)

// HeadlessScreen discards frames. It counts the frames that changed.
type HeadlessScreen struct {
	Frames int
}

func (s *HeadlessScreen) Render(d *Display, _ CPUState) error {
	if d.Dirty() {
		s.Frames++
	}
	return nil
}

// KeyEvent is a press or release of a keypad key.
type KeyEvent struct {
	Key     uint8
	Pressed bool
}

// ScriptedInput replays key events, one per poll, and requests to quit
// after a fixed number of polls.
type ScriptedInput struct {
	events   []KeyEvent
	maxPolls int
	polls    int
}

// NewScriptedInput returns an input that quits after maxPolls polls. A
// maxPolls of 0 never quits.
func NewScriptedInput(maxPolls int, events ...KeyEvent) *ScriptedInput {
	return &ScriptedInput{events: events, maxPolls: maxPolls}
}

func (s *ScriptedInput) Poll(k *Keypad) error {
	s.polls++
	if len(s.events) == 0 {
		return nil
	}
	_, err := s.apply(k)
	return err
}

func (s *ScriptedInput) QuitRequested() bool {
	return s.maxPolls > 0 && s.polls >= s.maxPolls
}

// WaitKeyPress applies at most one event per call, like Poll.
func (s *ScriptedInput) WaitKeyPress(k *Keypad, _ time.Duration) (uint8, bool, error) {
	s.polls++
	if len(s.events) == 0 {
		return 0, false, nil
	}
	wasPressed, err := k.IsPressed(s.events[0].Key)
	if err != nil {
		return 0, false, err
	}
	e, err := s.apply(k)
	if err != nil {
		return 0, false, err
	}
	if e.Pressed && !wasPressed {
		return e.Key, true, nil
	}
	return 0, false, nil
}

func (s *ScriptedInput) apply(k *Keypad) (KeyEvent, error) {
	e := s.events[0]
	s.events = s.events[1:]
	if e.Pressed {
		return e, k.Press(e.Key)
	}
	return e, k.Release(e.Key)
}

// DumpDisplay writes the framebuffer as text, one line per row.
func DumpDisplay(w io.Writer, d *Display) error {
	bw := bufio.NewWriter(w)
	for _, row := range d.Snapshot() {
		for _, on := range row {
			if on {
				bw.WriteByte('#')
			} else {
				bw.WriteByte('.')
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
