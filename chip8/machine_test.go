package chip8

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// clockedInput advances the clock by the full timeout of every key wait.
type clockedInput struct {
	*ScriptedInput
	clock *fakeClock
}

func (c clockedInput) WaitKeyPress(k *Keypad, timeout time.Duration) (uint8, bool, error) {
	c.clock.advance(timeout)
	return c.ScriptedInput.WaitKeyPress(k, timeout)
}

const period = time.Second / TimerFrequency

func TestNewMachine(t *testing.T) {
	m := newTestMachine(t, []byte{0x12, 0x34})

	s := m.CPU().Snapshot()
	assert.Equal(t, uint16(ProgramOffset), s.PC)
	assert.Equal(t, uint16(0), s.I)
	assert.Equal(t, [RegisterCount]uint8{}, s.V)
	assert.Empty(t, s.Stack)
	assert.Equal(t, Chip8DisplayW, m.Display().Width())
	assert.Equal(t, Chip8DisplayH, m.Display().Height())
	assert.Empty(t, m.Keypad().Pressed())
}

func TestNewMachineErrors(t *testing.T) {
	_, err := NewMachine(iotest.ErrReader(errors.New("boom")))
	assert.ErrorIs(t, err, ErrRomLoad)

	_, err = NewMachine(bytes.NewReader(make([]byte, MaxRomSize+1)))
	assert.ErrorIs(t, err, ErrRomTooLarge)

	_, err = NewMachine(bytes.NewReader(nil), WithTimerRate(0))
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestSuperChipMode(t *testing.T) {
	m := newTestMachine(t, nil, WithDisplayMode(ModeSuperChip))
	assert.Equal(t, SuperChipDisplayW, m.Display().Width())
	assert.Equal(t, SuperChipDisplayH, m.Display().Height())
}

func TestRunProgram(t *testing.T) {
	rom := []byte{
		0x60, 0x05, // LD V0,#05
		0x61, 0x03, // LD V1,#03
		0x80, 0x14, // ADD V0,V1
		0xA2, 0x00, // LD I,#200
		0x12, 0x08, // JP #208
	}
	m := newTestMachine(t, rom)

	screen := &HeadlessScreen{}
	err := m.Run(context.Background(), screen, NewScriptedInput(20))
	require.NoError(t, err)

	s := m.CPU().Snapshot()
	assert.Equal(t, uint8(0x08), s.V[0])
	assert.Equal(t, uint8(0x03), s.V[1])
	assert.Equal(t, uint8(0), s.V[FlagRegister])
	assert.Equal(t, uint16(0x200), s.I)
	assert.Equal(t, uint16(0x208), s.PC)
	assert.Equal(t, 1, screen.Frames)
}

func TestJumpToSelfKeepsTimersRunning(t *testing.T) {
	rom := []byte{
		0x60, 0x3C, // LD V0,#3C
		0xF0, 0x15, // LD DT,V0
		0x12, 0x04, // JP #204
	}
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := newTestMachine(t, rom, WithClock(clock.now))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Step(ctx, nil, nil))
	}
	require.Equal(t, uint8(60), m.CPU().DelayTimer())

	for i := 0; i < 10; i++ {
		clock.advance(period)
		m.TickTimers()
		require.NoError(t, m.Step(ctx, nil, nil))
		assert.Equal(t, uint16(0x204), m.CPU().PC())
	}
	assert.Equal(t, uint8(50), m.CPU().DelayTimer())
}

func TestTickTimers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := newTestMachine(t, nil, WithClock(clock.now))
	m.CPU().SetDelayTimer(2)
	m.CPU().SetSoundTimer(1)

	clock.advance(period / 2)
	m.TickTimers()
	assert.Equal(t, uint8(2), m.CPU().DelayTimer())

	clock.advance(period / 2)
	m.TickTimers()
	assert.Equal(t, uint8(1), m.CPU().DelayTimer())
	assert.Equal(t, uint8(0), m.CPU().SoundTimer())

	// a stall only ticks once
	m.CPU().SetDelayTimer(5)
	clock.advance(10 * period)
	m.TickTimers()
	m.TickTimers()
	assert.Equal(t, uint8(4), m.CPU().DelayTimer())
	assert.Equal(t, uint8(0), m.CPU().SoundTimer())

	clock.advance(period)
	m.TickTimers()
	assert.Equal(t, uint8(3), m.CPU().DelayTimer())
}

func TestKeyWaitTicksTimers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := newTestMachine(t, []byte{0xF3, 0x0A}, WithClock(clock.now))
	m.CPU().SetDelayTimer(5)

	input := clockedInput{ScriptedInput: NewScriptedInput(4), clock: clock}
	err := m.Step(context.Background(), nil, input)

	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, uint8(1), m.CPU().DelayTimer())
	assert.Equal(t, uint16(0x200), m.CPU().PC())
}

// countingScreen records the frames it was asked to present.
type countingScreen struct {
	renders int
	lit     []bool
	dt      []uint8
}

func (s *countingScreen) Render(d *Display, st CPUState) error {
	s.renders++
	s.lit = append(s.lit, d.Pixel(0, 0))
	s.dt = append(s.dt, st.DT)
	return nil
}

func TestKeyWaitKeepsRendering(t *testing.T) {
	rom := []byte{
		0x60, 0x0A, // LD V0,#0A
		0xF0, 0x29, // LD F,V0
		0x61, 0x00, // LD V1,#00
		0xD1, 0x15, // DRW V1,V1,5
		0xF3, 0x0A, // LD V3,K
	}
	clock := &fakeClock{t: time.Unix(0, 0)}
	m := newTestMachine(t, rom, WithClock(clock.now))
	m.CPU().SetDelayTimer(10)
	ctx := context.Background()

	screen := &countingScreen{}
	for i := 0; i < 4; i++ {
		require.NoError(t, m.Step(ctx, screen, nil))
	}
	assert.Zero(t, screen.renders)

	// the third wait slice sees the key
	input := clockedInput{
		ScriptedInput: NewScriptedInput(0, KeyEvent{Key: 1, Pressed: false}, KeyEvent{Key: 1, Pressed: false}, KeyEvent{Key: 1, Pressed: true}),
		clock:         clock,
	}
	require.NoError(t, m.Step(ctx, screen, input))

	assert.Equal(t, 2, screen.renders)
	assert.Equal(t, []bool{true, true}, screen.lit)
	assert.Equal(t, []uint8{9, 8}, screen.dt)
	assert.Equal(t, uint8(1), m.CPU().Snapshot().V[3])
	assert.False(t, m.Display().Dirty())
}

func TestRunStopsOnQuitDuringKeyWait(t *testing.T) {
	m := newTestMachine(t, []byte{0xF3, 0x0A})
	err := m.Run(context.Background(), &HeadlessScreen{}, NewScriptedInput(5))
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x200), m.CPU().PC())
}

func TestRunStopsOnCancel(t *testing.T) {
	m := newTestMachine(t, []byte{0x12, 0x00})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Run(ctx, &HeadlessScreen{}, NewScriptedInput(0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunFaults(t *testing.T) {
	tests := []struct {
		name    string
		rom     []byte
		prepare func(m *Machine)
		steps   int
		err     error
		pc      uint16
		opcode  uint16
	}{
		{
			name:   "return on empty stack",
			rom:    []byte{0x00, 0xEE},
			steps:  1,
			err:    ErrStackUnderflow,
			pc:     0x200,
			opcode: 0x00EE,
		},
		{
			name:   "recursive call",
			rom:    []byte{0x22, 0x00},
			steps:  StackDepth + 1,
			err:    ErrStackOverflow,
			pc:     0x200,
			opcode: 0x2200,
		},
		{
			name:   "fetch past memory",
			rom:    []byte{0x1F, 0xFF},
			steps:  2,
			err:    ErrAddressOutOfRange,
			pc:     0xFFF,
			opcode: 0,
		},
		{
			name: "index register overflow",
			rom:  []byte{0xF0, 0x1E},
			prepare: func(m *Machine) {
				m.cpu.i = 0xFFFF
				m.cpu.v[0] = 1
			},
			steps:  1,
			err:    ErrValueOutOfRange,
			pc:     0x200,
			opcode: 0xF01E,
		},
		{
			name: "bcd past memory",
			rom:  []byte{0xF0, 0x33},
			prepare: func(m *Machine) {
				m.cpu.i = 0xFFE
			},
			steps:  1,
			err:    ErrAddressOutOfRange,
			pc:     0x200,
			opcode: 0xF033,
		},
		{
			name: "sprite past memory",
			rom:  []byte{0xD0, 0x05},
			prepare: func(m *Machine) {
				m.cpu.i = 0xFFD
			},
			steps:  1,
			err:    ErrAddressOutOfRange,
			pc:     0x200,
			opcode: 0xD005,
		},
		{
			name: "key index from register",
			rom:  []byte{0xE0, 0x9E},
			prepare: func(m *Machine) {
				m.cpu.v[0] = 0x10
			},
			steps:  1,
			err:    ErrKeyIndexOutOfRange,
			pc:     0x200,
			opcode: 0xE09E,
		},
		{
			name: "font digit above F",
			rom:  []byte{0xF2, 0x29},
			prepare: func(m *Machine) {
				m.cpu.v[2] = 0x10
			},
			steps:  1,
			err:    ErrValueOutOfRange,
			pc:     0x200,
			opcode: 0xF229,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMachine(t, tt.rom)
			if tt.prepare != nil {
				tt.prepare(m)
			}

			var err error
			for i := 0; i < tt.steps && err == nil; i++ {
				err = m.Step(context.Background(), nil, nil)
			}
			require.ErrorIs(t, err, tt.err)

			var execErr *ExecError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, tt.pc, execErr.PC)
			assert.Equal(t, tt.opcode, execErr.Opcode)
		})
	}
}

func TestRunReportsFault(t *testing.T) {
	m := newTestMachine(t, []byte{0x00, 0xEE})
	err := m.Run(context.Background(), &HeadlessScreen{}, NewScriptedInput(0))
	assert.ErrorIs(t, err, ErrStackUnderflow)
}

func TestCallAndReturn(t *testing.T) {
	rom := []byte{
		0x22, 0x06, // CALL #206
		0x60, 0x01, // LD V0,#01
		0x12, 0x04, // JP #204
		0x61, 0x02, // LD V1,#02
		0x00, 0xEE, // RET
	}
	m := newTestMachine(t, rom)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Step(ctx, nil, nil))
	}
	s := m.CPU().Snapshot()
	assert.Equal(t, uint8(1), s.V[0])
	assert.Equal(t, uint8(2), s.V[1])
	assert.Equal(t, uint16(0x204), s.PC)
	assert.Empty(t, s.Stack)
}

func TestDrawDigitFromFont(t *testing.T) {
	rom := []byte{
		0x60, 0x0A, // LD V0,#0A
		0xF0, 0x29, // LD F,V0
		0x61, 0x00, // LD V1,#00
		0xD1, 0x15, // DRW V1,V1,5
	}
	m := newTestMachine(t, rom)
	for i := 0; i < 4; i++ {
		require.NoError(t, m.Step(context.Background(), nil, nil))
	}

	glyph := Glyph(0xA)
	for y := 0; y < CharacterSpriteSize; y++ {
		for x := 0; x < 8; x++ {
			want := glyph[y]&(0x80>>x) != 0
			assert.Equal(t, want, m.Display().Pixel(x, y), "pixel %d,%d", x, y)
		}
	}
	assert.Equal(t, uint8(0), m.CPU().Snapshot().V[FlagRegister])
}

func TestTraceRecordsExecutedInstructions(t *testing.T) {
	rom := []byte{0x60, 0x05, 0x61, 0x03, 0x80, 0x14}
	m := newTestMachine(t, rom, WithTraceDepth(2))
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Step(context.Background(), nil, nil))
	}

	h := m.Trace().History()
	require.Len(t, h, 2)
	assert.Equal(t, uint16(0x202), h[0].PC)
	assert.Equal(t, uint16(0x6103), h[0].Word)
	assert.Equal(t, uint16(0x204), h[1].PC)
	assert.Equal(t, uint16(0x8014), h[1].Word)
	assert.Contains(t, h[1].Mnemonic, "V0,V1")
}
