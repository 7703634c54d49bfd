package endian_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"

	"github.com/ossyrian/gcmtool/internal/endian"
)

func TestReader_Primitives(t *testing.T) {
	tests := []struct {
		name   string
		endian endian.Endianness
		input  []byte
		read   func(r *endian.Reader) (uint64, error)
		want   uint64
	}{
		{
			name:   "uint16 big endian",
			endian: endian.BigEndian,
			input:  []byte{0x12, 0x34},
			read:   func(r *endian.Reader) (uint64, error) { v, err := r.ReadUint16(); return uint64(v), err },
			want:   0x1234,
		},
		{
			name:   "uint16 little endian",
			endian: endian.LittleEndian,
			input:  []byte{0x12, 0x34},
			read:   func(r *endian.Reader) (uint64, error) { v, err := r.ReadUint16(); return uint64(v), err },
			want:   0x3412,
		},
		{
			name:   "uint24 big endian",
			endian: endian.BigEndian,
			input:  []byte{0x01, 0x02, 0x03},
			read:   func(r *endian.Reader) (uint64, error) { v, err := r.ReadUint24(); return uint64(v), err },
			want:   0x010203,
		},
		{
			name:   "uint24 little endian",
			endian: endian.LittleEndian,
			input:  []byte{0x01, 0x02, 0x03},
			read:   func(r *endian.Reader) (uint64, error) { v, err := r.ReadUint24(); return uint64(v), err },
			want:   0x030201,
		},
		{
			name:   "uint32 big endian",
			endian: endian.BigEndian,
			input:  []byte{0xC2, 0x33, 0x9F, 0x3D},
			read:   func(r *endian.Reader) (uint64, error) { v, err := r.ReadUint32(); return uint64(v), err },
			want:   0xC2339F3D,
		},
		{
			name:   "uint64 little endian",
			endian: endian.LittleEndian,
			input:  []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01},
			read:   func(r *endian.Reader) (uint64, error) { return r.ReadUint64() },
			want:   0x0102030405060708,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := endian.NewReader(bytes.NewReader(tt.input), tt.endian)
			got, err := tt.read(r)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got 0x%X, want 0x%X", got, tt.want)
			}
		})
	}
}

func TestReader_Truncated(t *testing.T) {
	r := endian.NewReader(bytes.NewReader([]byte{0x00, 0x01}), endian.BigEndian)
	_, err := r.ReadUint32()
	if err == nil {
		t.Fatal("ReadUint32() succeeded on 2 bytes")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadUint32() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReader_Strings(t *testing.T) {
	input := []byte("abc\x00defgh\x00\x00\x00tail")
	r := endian.NewReader(bytes.NewReader(input), endian.BigEndian)

	s, err := r.ReadStringNT(encoding.Nop)
	if err != nil || s != "abc" {
		t.Fatalf("ReadStringNT() = %q, %v; want \"abc\"", s, err)
	}

	s, err = r.ReadFixedString(8, encoding.Nop)
	if err != nil || s != "defgh" {
		t.Fatalf("ReadFixedString() = %q, %v; want \"defgh\"", s, err)
	}

	s, err = r.ReadString(4, nil)
	if err != nil || s != "tail" {
		t.Fatalf("ReadString() = %q, %v; want \"tail\"", s, err)
	}

	if _, err := r.ReadStringNT(encoding.Nop); err == nil {
		t.Fatal("ReadStringNT() at end of stream succeeded")
	} else if !strings.Contains(err.Error(), "unterminated string") {
		t.Errorf("ReadStringNT() error = %v, should contain %q", err, "unterminated string")
	}
}

func TestReader_ShiftJIS(t *testing.T) {
	// "ファイル" in Shift-JIS
	input := []byte{0x83, 0x74, 0x83, 0x40, 0x83, 0x43, 0x83, 0x8B, 0x00}
	r := endian.NewReader(bytes.NewReader(input), endian.BigEndian)

	s, err := r.ReadStringNT(japanese.ShiftJIS)
	if err != nil {
		t.Fatalf("ReadStringNT() failed: %v", err)
	}
	if s != "ファイル" {
		t.Errorf("ReadStringNT() = %q, want %q", s, "ファイル")
	}
}

func TestReader_PositionStackAndAlign(t *testing.T) {
	r := endian.NewReader(bytes.NewReader(make([]byte, 64)), endian.BigEndian)

	if err := r.SetPosition(5); err != nil {
		t.Fatal(err)
	}
	if err := r.PushPosition(); err != nil {
		t.Fatal(err)
	}
	if err := r.Align(16); err != nil {
		t.Fatal(err)
	}
	if pos, _ := r.Position(); pos != 16 {
		t.Errorf("after Align(16) position = %d, want 16", pos)
	}
	if err := r.Align(16); err != nil {
		t.Fatal(err)
	}
	if pos, _ := r.Position(); pos != 16 {
		t.Errorf("Align on aligned position moved to %d", pos)
	}

	pos, err := r.PopPosition()
	if err != nil || pos != 5 {
		t.Fatalf("PopPosition() = %d, %v; want 5", pos, err)
	}
	if cur, _ := r.Position(); cur != 5 {
		t.Errorf("position after PopPosition() = %d, want 5", cur)
	}
	if _, err := r.PopPosition(); err == nil {
		t.Error("PopPosition() on empty stack succeeded")
	}

	n, err := r.Length()
	if err != nil || n != 64 {
		t.Errorf("Length() = %d, %v; want 64", n, err)
	}
	if cur, _ := r.Position(); cur != 5 {
		t.Errorf("Length() moved position to %d", cur)
	}
}

func TestReader_ReadToEnd(t *testing.T) {
	r := endian.NewReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}), endian.BigEndian)
	if err := r.SetPosition(2); err != nil {
		t.Fatal(err)
	}
	got, err := r.ReadToEnd()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{3, 4, 5}) {
		t.Errorf("ReadToEnd() = %v, want [3 4 5]", got)
	}
}

type triple struct {
	A [3]uint16
	B uint32
}

func TestReadStruct_Stride(t *testing.T) {
	tests := []struct {
		name   string
		endian endian.Endianness
		input  []byte
		stride int
		want   [4]uint16
	}{
		{
			name:   "big endian per element",
			endian: endian.BigEndian,
			input:  []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04},
			stride: 2,
			want:   [4]uint16{1, 2, 3, 4},
		},
		{
			name:   "little endian per element",
			endian: endian.LittleEndian,
			input:  []byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00},
			stride: 2,
			want:   [4]uint16{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := endian.NewReader(bytes.NewReader(tt.input), tt.endian)
			got, err := endian.ReadStruct[[4]uint16](r, tt.stride)
			if err != nil {
				t.Fatalf("ReadStruct() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadStruct() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadStruct_BadStride(t *testing.T) {
	r := endian.NewReader(bytes.NewReader(make([]byte, 10)), endian.BigEndian)
	_, err := endian.ReadStruct[triple](r, 4)
	if err == nil {
		t.Fatal("ReadStruct() with stride 4 on a 10 byte struct succeeded")
	}
	if !strings.Contains(err.Error(), "does not divide") {
		t.Errorf("ReadStruct() error = %v, should contain %q", err, "does not divide")
	}
}
