package endian

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Endianness is the byte order a cursor reads and writes multi-byte values in.
type Endianness int

const (
	BigEndian Endianness = iota
	LittleEndian
)

// ErrUint24Range is returned when a value does not fit in 24 bits.
var ErrUint24Range = errors.New("value out of range for uint24")

// MaxUint24 is the largest value a 24-bit field can hold.
const MaxUint24 = 1<<24 - 1

var nativeLittle = binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 0x0001

// Native returns the byte order of the host.
func Native() Endianness {
	if nativeLittle {
		return LittleEndian
	}
	return BigEndian
}

// ByteOrder returns the encoding/binary byte order matching e.
func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "big-endian"
	case LittleEndian:
		return "little-endian"
	default:
		return "unknown"
	}
}

// base holds the state shared by Reader and Writer: the stream,
// the configured byte order and a stack of saved positions.
type base struct {
	stream    io.Seeker
	endian    Endianness
	order     binary.ByteOrder
	reverse   bool // endian differs from the host order
	positions []int64
}

func newBase(s io.Seeker, e Endianness) base {
	b := base{stream: s}
	b.SetEndianness(e)
	return b
}

// Endianness returns the byte order currently in use.
func (b *base) Endianness() Endianness { return b.endian }

// SetEndianness changes the byte order used by subsequent operations.
func (b *base) SetEndianness(e Endianness) {
	b.endian = e
	b.order = e.ByteOrder()
	b.reverse = e != Native()
}

// SwitchEndianness flips between big and little endian.
func (b *base) SwitchEndianness() {
	if b.endian == BigEndian {
		b.SetEndianness(LittleEndian)
	} else {
		b.SetEndianness(BigEndian)
	}
}

// Position returns the current stream position.
func (b *base) Position() (int64, error) {
	pos, err := b.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to get current position: %w", err)
	}
	return pos, nil
}

// SetPosition moves the stream to an absolute position.
func (b *base) SetPosition(pos int64) error {
	if _, err := b.stream.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to 0x%X: %w", pos, err)
	}
	return nil
}

// Seek implements io.Seeker on the underlying stream.
func (b *base) Seek(offset int64, whence int) (int64, error) {
	return b.stream.Seek(offset, whence)
}

// Length returns the stream length in bytes. The position is left unchanged.
func (b *base) Length() (int64, error) {
	pos, err := b.Position()
	if err != nil {
		return 0, err
	}
	end, err := b.stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("failed to seek to end of stream: %w", err)
	}
	if err := b.SetPosition(pos); err != nil {
		return 0, err
	}
	return end, nil
}

// PushPosition saves the current position on the position stack.
func (b *base) PushPosition() error {
	pos, err := b.Position()
	if err != nil {
		return err
	}
	b.positions = append(b.positions, pos)
	return nil
}

// PeekPosition returns the top of the position stack without moving.
func (b *base) PeekPosition() (int64, bool) {
	if len(b.positions) == 0 {
		return 0, false
	}
	return b.positions[len(b.positions)-1], true
}

// PopPosition removes the top of the position stack and seeks back to it.
func (b *base) PopPosition() (int64, error) {
	pos, ok := b.PeekPosition()
	if !ok {
		return 0, errors.New("position stack is empty")
	}
	b.positions = b.positions[:len(b.positions)-1]
	return pos, b.SetPosition(pos)
}

// Align advances the position to the next multiple of alignment
// without touching the data in between.
func (b *base) Align(alignment int64) error {
	if alignment <= 0 {
		return fmt.Errorf("invalid alignment %d", alignment)
	}
	pos, err := b.Position()
	if err != nil {
		return err
	}
	if pos%alignment == 0 {
		return nil
	}
	return b.SetPosition(AlignUp(pos, alignment))
}

// AlignUp rounds v up to the next multiple of alignment.
func AlignUp(v, alignment int64) int64 {
	if alignment <= 1 {
		return v
	}
	if rem := v % alignment; rem != 0 {
		return v + alignment - rem
	}
	return v
}

// reverseStride reverses buf in place, stride bytes at a time.
// An odd stride leaves its middle byte where it is.
func reverseStride(buf []byte, stride int) {
	if stride <= 1 {
		return
	}
	for i := 0; i+stride <= len(buf); i += stride {
		elem := buf[i : i+stride]
		for a, z := 0, stride-1; a < z; a, z = a+1, z-1 {
			elem[a], elem[z] = elem[z], elem[a]
		}
	}
}
