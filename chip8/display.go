package chip8

// Mode selects the framebuffer resolution.
type Mode int

const (
	ModeChip8 Mode = iota
	ModeSuperChip
)

const (
	Chip8DisplayW     = 64
	Chip8DisplayH     = 32
	SuperChipDisplayW = 128
	SuperChipDisplayH = 64
	spriteWidth       = 8
)

func (m Mode) String() string {
	if m == ModeSuperChip {
		return "schip"
	}
	return "chip8"
}

// Display is a monochrome framebuffer with XOR sprite drawing.
type Display struct {
	width  int
	height int
	wrap   bool
	dirty  bool
	pixels []bool
}

// NewDisplay creates a cleared framebuffer. With wrap set, sprite bodies wrap
// around the screen edges instead of being clipped.
func NewDisplay(mode Mode, wrap bool) *Display {
	d := &Display{width: Chip8DisplayW, height: Chip8DisplayH, wrap: wrap}
	if mode == ModeSuperChip {
		d.width = SuperChipDisplayW
		d.height = SuperChipDisplayH
	}
	d.pixels = make([]bool, d.width*d.height)
	d.dirty = true
	return d
}

func (d *Display) Width() int {
	return d.width
}

func (d *Display) Height() int {
	return d.height
}

// Pixel reports the state of a cell. Coordinates outside the grid are off.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= d.width || y >= d.height {
		return false
	}
	return d.pixels[y*d.width+x]
}

// Snapshot returns a copy of the framebuffer indexed [row][column].
func (d *Display) Snapshot() [][]bool {
	rows := make([][]bool, d.height)
	for y := range rows {
		rows[y] = make([]bool, d.width)
		copy(rows[y], d.pixels[y*d.width:(y+1)*d.width])
	}
	return rows
}

func (d *Display) Clear() {
	for i := range d.pixels {
		d.pixels[i] = false
	}
	d.dirty = true
}

// Dirty reports whether the framebuffer changed since the last ResetDirty.
func (d *Display) Dirty() bool {
	return d.dirty
}

func (d *Display) ResetDirty() {
	d.dirty = false
}

// AttachSprite XORs an 8 pixel wide sprite onto the framebuffer. The origin
// wraps around the grid, the body is clipped at the right and bottom edges.
// It returns true if any lit pixel was switched off.
func (d *Display) AttachSprite(sprite []byte, x, y uint8) bool {
	ox := int(x) % d.width
	oy := int(y) % d.height
	collided := false

	for row, b := range sprite {
		ty := oy + row
		if ty >= d.height {
			if !d.wrap {
				break
			}
			ty %= d.height
		}
		for col := 0; col < spriteWidth; col++ {
			if (b>>(7-col))&0x01 == 0 {
				continue
			}
			tx := ox + col
			if tx >= d.width {
				if !d.wrap {
					break
				}
				tx %= d.width
			}

			p := &d.pixels[ty*d.width+tx]
			if *p {
				collided = true
			}
			*p = !*p
			d.dirty = true
		}
	}
	return collided
}
