package endian

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// Writer writes fixed-width values and strings to a seekable stream.
// A Writer is not safe for concurrent use.
type Writer struct {
	base
	w   io.WriteSeeker
	buf []byte
}

// NewWriter returns a Writer over w using byte order e.
func NewWriter(w io.WriteSeeker, e Endianness) *Writer {
	return &Writer{
		base: newBase(w, e),
		w:    w,
		buf:  make([]byte, 16),
	}
}

func (w *Writer) write(p []byte) error {
	if _, err := w.w.Write(p); err != nil {
		return err
	}
	return nil
}

func (w *Writer) WriteByte(b byte) error {
	w.buf[0] = b
	if err := w.write(w.buf[:1]); err != nil {
		return fmt.Errorf("failed to write byte: %w", err)
	}
	return nil
}

func (w *Writer) WriteUint16(v uint16) error {
	w.order.PutUint16(w.buf, v)
	if err := w.write(w.buf[:2]); err != nil {
		return fmt.Errorf("failed to write uint16: %w", err)
	}
	return nil
}

func (w *Writer) WriteInt16(v int16) error { return w.WriteUint16(uint16(v)) }

// WriteUint24 writes the low 24 bits of v. Values that do not fit
// are rejected with ErrUint24Range.
func (w *Writer) WriteUint24(v uint32) error {
	if v > MaxUint24 {
		return fmt.Errorf("%w: 0x%X", ErrUint24Range, v)
	}
	if w.endian == BigEndian {
		w.buf[0], w.buf[1], w.buf[2] = byte(v>>16), byte(v>>8), byte(v)
	} else {
		w.buf[0], w.buf[1], w.buf[2] = byte(v), byte(v>>8), byte(v>>16)
	}
	if err := w.write(w.buf[:3]); err != nil {
		return fmt.Errorf("failed to write uint24: %w", err)
	}
	return nil
}

func (w *Writer) WriteUint32(v uint32) error {
	w.order.PutUint32(w.buf, v)
	if err := w.write(w.buf[:4]); err != nil {
		return fmt.Errorf("failed to write uint32: %w", err)
	}
	return nil
}

func (w *Writer) WriteInt32(v int32) error { return w.WriteUint32(uint32(v)) }

func (w *Writer) WriteUint64(v uint64) error {
	w.order.PutUint64(w.buf, v)
	if err := w.write(w.buf[:8]); err != nil {
		return fmt.Errorf("failed to write uint64: %w", err)
	}
	return nil
}

func (w *Writer) WriteInt64(v int64) error { return w.WriteUint64(uint64(v)) }

func (w *Writer) WriteBytes(p []byte) error {
	if err := w.write(p); err != nil {
		return fmt.Errorf("failed to write %d bytes: %w", len(p), err)
	}
	return nil
}

// WriteString encodes s with enc and writes it without a terminator.
func (w *Writer) WriteString(s string, enc encoding.Encoding) error {
	raw, err := encode(s, enc)
	if err != nil {
		return err
	}
	return w.WriteBytes(raw)
}

// WriteStringNT writes s followed by a NUL byte.
func (w *Writer) WriteStringNT(s string, enc encoding.Encoding) error {
	if err := w.WriteString(s, enc); err != nil {
		return err
	}
	return w.WriteByte(0)
}

// WriteFixedString writes s into a field of total bytes, padding with NULs.
func (w *Writer) WriteFixedString(s string, total int, enc encoding.Encoding) error {
	raw, err := encode(s, enc)
	if err != nil {
		return err
	}
	if len(raw) > total {
		return fmt.Errorf("string of %d bytes does not fit in %d byte field", len(raw), total)
	}
	field := make([]byte, total)
	copy(field, raw)
	return w.WriteBytes(field)
}

func encode(s string, enc encoding.Encoding) ([]byte, error) {
	if enc == nil || enc == encoding.Nop {
		return []byte(s), nil
	}
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode string %q: %w", s, err)
	}
	return out, nil
}

// HardAlign pads the stream with fill until the position is a multiple of alignment.
func (w *Writer) HardAlign(alignment int64, fill byte) error {
	pad, err := w.padding(alignment)
	if err != nil || pad == 0 {
		return err
	}
	buf := make([]byte, pad)
	for i := range buf {
		buf[i] = fill
	}
	return w.WriteBytes(buf)
}

// HardAlignPattern pads the stream by repeating pattern until the position
// is a multiple of alignment. The pattern always restarts at its first byte.
func (w *Writer) HardAlignPattern(alignment int64, pattern string) error {
	if pattern == "" {
		return fmt.Errorf("empty padding pattern")
	}
	pad, err := w.padding(alignment)
	if err != nil || pad == 0 {
		return err
	}
	buf := make([]byte, pad)
	for i := range buf {
		buf[i] = pattern[i%len(pattern)]
	}
	return w.WriteBytes(buf)
}

func (w *Writer) padding(alignment int64) (int64, error) {
	if alignment <= 0 {
		return 0, fmt.Errorf("invalid alignment %d", alignment)
	}
	pos, err := w.Position()
	if err != nil {
		return 0, err
	}
	return AlignUp(pos, alignment) - pos, nil
}

// WriteStruct writes a fixed-size value of type T, reversing the encoded
// bytes per stride when the writer's byte order differs from the host's.
func WriteStruct[T any](w *Writer, v T, stride int) error {
	size := binary.Size(v)
	if size < 0 {
		return fmt.Errorf("type %T has no fixed size", v)
	}
	if stride > 1 && size%stride != 0 {
		return fmt.Errorf("stride %d does not divide size %d of %T", stride, size, v)
	}
	raw := make([]byte, size)
	if _, err := binary.Encode(raw, binary.NativeEndian, v); err != nil {
		return fmt.Errorf("failed to encode %T: %w", v, err)
	}
	if w.reverse {
		reverseStride(raw, stride)
	}
	return w.WriteBytes(raw)
}
