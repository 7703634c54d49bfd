package gcm

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

const (
	// HeaderSize is the size of the disc header (boot.bin) at offset 0.
	HeaderSize = 0x440

	// EntrySize is the size of one directory table record.
	EntrySize = 12

	// DiscSize is the size of a full GameCube disc image.
	DiscSize = 0x57058000

	// DefaultAlignment is the alignment applied to relocated file data.
	// Some tools align to 0x80 instead.
	DefaultAlignment = 4
)

// Magic words stored in the header. Only checked by Header.Validate.
const (
	GameCubeMagic uint32 = 0xC2339F3D
	WiiMagic      uint32 = 0x5D1C9EA3
)

// NameEncoding returns the text encoding used for FST names and the
// header title for the given configuration value.
func NameEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "ascii":
		return encoding.Nop, nil
	case "shift-jis", "sjis":
		return japanese.ShiftJIS, nil
	case "latin1", "windows-1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unknown name encoding: %s", name)
	}
}
