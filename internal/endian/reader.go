package endian

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// Reader reads fixed-width values and strings from a seekable stream.
// A Reader is not safe for concurrent use.
type Reader struct {
	base
	r   io.ReadSeeker
	buf []byte
}

// NewReader returns a Reader over r using byte order e.
func NewReader(r io.ReadSeeker, e Endianness) *Reader {
	return &Reader{
		base: newBase(r, e),
		r:    r,
		buf:  make([]byte, 16),
	}
}

// fill reads exactly n bytes into the scratch buffer.
func (r *Reader) fill(n int) ([]byte, error) {
	if cap(r.buf) < n {
		r.buf = make([]byte, n)
	}
	buf := r.buf[:n]
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) ReadByte() (byte, error) {
	buf, err := r.fill(1)
	if err != nil {
		return 0, fmt.Errorf("failed to read byte: %w", err)
	}
	return buf[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.fill(2)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint16: %w", err)
	}
	return r.order.Uint16(buf), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint24 reads a 3-byte unsigned value.
func (r *Reader) ReadUint24() (uint32, error) {
	buf, err := r.fill(3)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint24: %w", err)
	}
	if r.endian == BigEndian {
		return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2]), nil
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.fill(4)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint32: %w", err)
	}
	return r.order.Uint32(buf), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.fill(8)
	if err != nil {
		return 0, fmt.Errorf("failed to read uint64: %w", err)
	}
	return r.order.Uint64(buf), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadBytes reads exactly n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid byte count %d", n)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r.r, out); err != nil {
		return nil, fmt.Errorf("failed to read %d bytes: %w", n, err)
	}
	return out, nil
}

// ReadToEnd reads everything from the current position to the end of the stream.
func (r *Reader) ReadToEnd() ([]byte, error) {
	pos, err := r.Position()
	if err != nil {
		return nil, err
	}
	end, err := r.Length()
	if err != nil {
		return nil, err
	}
	if end <= pos {
		return []byte{}, nil
	}
	return r.ReadBytes(int(end - pos))
}

// ReadString reads n bytes and decodes them with enc.
func (r *Reader) ReadString(n int, enc encoding.Encoding) (string, error) {
	raw, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return decode(raw, enc)
}

// ReadStringNT reads a NUL-terminated string. The terminator is consumed
// but not returned.
func (r *Reader) ReadStringNT(enc encoding.Encoding) (string, error) {
	raw := make([]byte, 0, 32)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("unterminated string: %w", err)
		}
		if b == 0 {
			break
		}
		raw = append(raw, b)
	}
	return decode(raw, enc)
}

// ReadFixedString reads a string stored in a field of total bytes.
// Everything from the first NUL onwards is dropped.
func (r *Reader) ReadFixedString(total int, enc encoding.Encoding) (string, error) {
	raw, err := r.ReadBytes(total)
	if err != nil {
		return "", err
	}
	return DecodeFixed(raw, enc)
}

// DecodeFixed decodes a NUL padded field.
func DecodeFixed(raw []byte, enc encoding.Encoding) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return decode(raw, enc)
}

func decode(raw []byte, enc encoding.Encoding) (string, error) {
	if enc == nil || enc == encoding.Nop {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode string: %w", err)
	}
	return string(out), nil
}

// ReadStruct reads a fixed-size value of type T. When the reader's byte
// order differs from the host's, the raw bytes are reversed in place per
// stride before decoding, so arrays of multi-byte elements are swapped
// element by element. A stride of 0 or 1 disables reversal.
func ReadStruct[T any](r *Reader, stride int) (T, error) {
	var v T
	size := binary.Size(v)
	if size < 0 {
		return v, fmt.Errorf("type %T has no fixed size", v)
	}
	if stride > 1 && size%stride != 0 {
		return v, fmt.Errorf("stride %d does not divide size %d of %T", stride, size, v)
	}
	raw, err := r.ReadBytes(size)
	if err != nil {
		return v, err
	}
	if r.reverse {
		reverseStride(raw, stride)
	}
	if _, err := binary.Decode(raw, binary.NativeEndian, &v); err != nil {
		return v, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return v, nil
}
