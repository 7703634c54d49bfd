package gcm

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/ossyrian/gcmtool/internal/endian"
)

// ErrBadMagic is returned by Header.Validate when neither magic word matches.
var ErrBadMagic = errors.New("invalid disc magic")

// Header is the fixed disc header at offset 0 of a GCM image.
// Reserved areas and the name field are kept as raw bytes so that
// writing an unmodified header reproduces the original exactly.
type Header struct {
	GameID           [4]byte
	CompanyID        uint16
	DiscID           byte
	Version          byte
	AudioStreaming   byte
	StreamBufferSize byte
	Reserved1        [0x0E]byte
	WiiMagic         uint32
	GCMagic          uint32
	Name             [0x3E0]byte
	DebugOffset      uint32
	DebugAddress     uint32
	Reserved2        [0x18]byte
	DOLOffset        uint32

	FileSystemOffset    uint32 // absolute offset of the directory table
	FileSystemSize      uint32 // size of entries + name table
	FileSystemMaxSize   uint32
	UnknownAddress      uint32
	FileDataStartOffset uint32 // lower bound for relocated file data
	UnknownOffset2      uint32

	Padding [4]byte
}

// ReadHeader reads a header at the reader's current position.
func ReadHeader(r *endian.Reader) (*Header, error) {
	h := &Header{}

	raw := func(dst []byte, field string) error {
		b, err := r.ReadBytes(len(dst))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", field, err)
		}
		copy(dst, b)
		return nil
	}
	u32 := func(dst *uint32, field string) error {
		v, err := r.ReadUint32()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", field, err)
		}
		*dst = v
		return nil
	}

	if err := raw(h.GameID[:], "game id"); err != nil {
		return nil, err
	}
	var err error
	if h.CompanyID, err = r.ReadUint16(); err != nil {
		return nil, fmt.Errorf("failed to read company id: %w", err)
	}
	var ids [4]byte
	if err := raw(ids[:], "disc id"); err != nil {
		return nil, err
	}
	h.DiscID, h.Version, h.AudioStreaming, h.StreamBufferSize = ids[0], ids[1], ids[2], ids[3]

	if err := raw(h.Reserved1[:], "reserved area"); err != nil {
		return nil, err
	}
	if err := u32(&h.WiiMagic, "wii magic"); err != nil {
		return nil, err
	}
	if err := u32(&h.GCMagic, "gamecube magic"); err != nil {
		return nil, err
	}
	if err := raw(h.Name[:], "game name"); err != nil {
		return nil, err
	}
	if err := u32(&h.DebugOffset, "debug offset"); err != nil {
		return nil, err
	}
	if err := u32(&h.DebugAddress, "debug address"); err != nil {
		return nil, err
	}
	if err := raw(h.Reserved2[:], "reserved area"); err != nil {
		return nil, err
	}

	fields := []struct {
		dst  *uint32
		name string
	}{
		{&h.DOLOffset, "dol offset"},
		{&h.FileSystemOffset, "file system offset"},
		{&h.FileSystemSize, "file system size"},
		{&h.FileSystemMaxSize, "file system max size"},
		{&h.UnknownAddress, "unknown address"},
		{&h.FileDataStartOffset, "file data start offset"},
		{&h.UnknownOffset2, "unknown offset"},
	}
	for _, f := range fields {
		if err := u32(f.dst, f.name); err != nil {
			return nil, err
		}
	}

	if err := raw(h.Padding[:], "header padding"); err != nil {
		return nil, err
	}

	return h, nil
}

// Write writes h at the writer's current position. It is the exact
// inverse of ReadHeader.
func (h *Header) Write(w *endian.Writer) error {
	steps := []func() error{
		func() error { return w.WriteBytes(h.GameID[:]) },
		func() error { return w.WriteUint16(h.CompanyID) },
		func() error { return w.WriteBytes([]byte{h.DiscID, h.Version, h.AudioStreaming, h.StreamBufferSize}) },
		func() error { return w.WriteBytes(h.Reserved1[:]) },
		func() error { return w.WriteUint32(h.WiiMagic) },
		func() error { return w.WriteUint32(h.GCMagic) },
		func() error { return w.WriteBytes(h.Name[:]) },
		func() error { return w.WriteUint32(h.DebugOffset) },
		func() error { return w.WriteUint32(h.DebugAddress) },
		func() error { return w.WriteBytes(h.Reserved2[:]) },
		func() error { return w.WriteUint32(h.DOLOffset) },
		func() error { return w.WriteUint32(h.FileSystemOffset) },
		func() error { return w.WriteUint32(h.FileSystemSize) },
		func() error { return w.WriteUint32(h.FileSystemMaxSize) },
		func() error { return w.WriteUint32(h.UnknownAddress) },
		func() error { return w.WriteUint32(h.FileDataStartOffset) },
		func() error { return w.WriteUint32(h.UnknownOffset2) },
		func() error { return w.WriteBytes(h.Padding[:]) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	return nil
}

// GameCode returns the six character product code (game id + maker code).
func (h *Header) GameCode() string {
	return string(h.GameID[:]) + string([]byte{byte(h.CompanyID >> 8), byte(h.CompanyID)})
}

// Title decodes the game name stored in the header.
func (h *Header) Title(enc encoding.Encoding) (string, error) {
	return endian.DecodeFixed(h.Name[:], enc)
}

// Validate checks the console magic words.
func (h *Header) Validate() error {
	if h.GCMagic == GameCubeMagic || h.WiiMagic == WiiMagic {
		return nil
	}
	return fmt.Errorf("%w: gamecube 0x%08X, wii 0x%08X", ErrBadMagic, h.GCMagic, h.WiiMagic)
}

// IsWii reports whether the header carries the Wii magic word.
func (h *Header) IsWii() bool { return h.WiiMagic == WiiMagic }
