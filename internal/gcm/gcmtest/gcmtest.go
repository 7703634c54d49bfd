// Package gcmtest builds small synthetic GCM images for tests.
package gcmtest

import (
	"fmt"
	"os"
	"testing"

	"github.com/spf13/afero"

	"github.com/ossyrian/gcmtool/internal/endian"
	"github.com/ossyrian/gcmtool/internal/gcm"
)

// Entry describes one directory table record (ids start at 1).
type Entry struct {
	Dir      bool
	Name     string
	Setting0 uint32
	Setting1 uint32
}

// Dir returns a directory record.
func Dir(name string, parent, next uint32) Entry {
	return Entry{Dir: true, Name: name, Setting0: parent, Setting1: next}
}

// File returns a file record.
func File(name string, offset, size uint32) Entry {
	return Entry{Name: name, Setting0: offset, Setting1: size}
}

// Image is a synthetic disc layout.
type Image struct {
	GameID              string
	FileSystemOffset    uint32
	FileDataStartOffset uint32
	Length              int64
	Entries             []Entry

	// Count overrides the root's entry count when non-zero.
	Count uint32
}

// Payload returns the bytes stored for the file with the given id.
func (img *Image) Payload(id int) []byte {
	e := img.Entries[id-1]
	data := make([]byte, e.Setting1)
	for k := range data {
		data[k] = byte(id*31 + k)
	}
	return data
}

// Header returns the header written by Save.
func (img *Image) Header() *gcm.Header {
	h := &gcm.Header{
		CompanyID:           0x3031,
		GCMagic:             gcm.GameCubeMagic,
		DOLOffset:           gcm.HeaderSize,
		FileSystemOffset:    img.FileSystemOffset,
		FileSystemSize:      uint32(img.fstSize()),
		FileSystemMaxSize:   uint32(img.fstSize()),
		FileDataStartOffset: img.FileDataStartOffset,
	}
	copy(h.GameID[:], img.GameID)
	copy(h.Name[:], "Synthetic Test Disc")
	return h
}

func (img *Image) names() ([]byte, []uint32) {
	var table []byte
	offsets := make([]uint32, len(img.Entries))
	for i, e := range img.Entries {
		offsets[i] = uint32(len(table))
		table = append(table, e.Name...)
		table = append(table, 0)
	}
	return table, offsets
}

func (img *Image) fstSize() int {
	table, _ := img.names()
	return (len(img.Entries)+1)*gcm.EntrySize + len(table)
}

// Save writes the image as name on fs.
func (img *Image) Save(fs afero.Fs, name string) error {
	f, err := fs.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(make([]byte, img.Length)); err != nil {
		return err
	}

	w := endian.NewWriter(f, endian.BigEndian)
	if err := w.SetPosition(0); err != nil {
		return err
	}
	if err := img.Header().Write(w); err != nil {
		return err
	}

	count := img.Count
	if count == 0 {
		count = uint32(len(img.Entries) + 1)
	}
	table, offsets := img.names()

	if err := w.SetPosition(int64(img.FileSystemOffset)); err != nil {
		return err
	}
	root := gcm.DirectoryEntry{Flag: 1, Setting1: count}
	if err := root.Write(w); err != nil {
		return err
	}
	for i, e := range img.Entries {
		rec := gcm.DirectoryEntry{NameOffset: offsets[i], Setting0: e.Setting0, Setting1: e.Setting1}
		if e.Dir {
			rec.Flag = 1
		}
		if err := rec.Write(w); err != nil {
			return err
		}
	}
	if err := w.WriteBytes(table); err != nil {
		return err
	}

	for i, e := range img.Entries {
		if e.Dir || e.Setting1 == 0 {
			continue
		}
		if int64(e.Setting0)+int64(e.Setting1) > img.Length {
			return fmt.Errorf("file %q does not fit in a 0x%X byte image", e.Name, img.Length)
		}
		if err := w.SetPosition(int64(e.Setting0)); err != nil {
			return err
		}
		if err := w.WriteBytes(img.Payload(i + 1)); err != nil {
			return err
		}
	}
	return nil
}

// Open writes the image to a fresh in-memory filesystem and opens it for
// reading and writing.
func (img *Image) Open(t testing.TB) (afero.Fs, afero.File) {
	t.Helper()

	fs := afero.NewMemMapFs()
	if err := img.Save(fs, "disc.gcm"); err != nil {
		t.Fatalf("failed to build test image: %v", err)
	}
	f, err := fs.OpenFile("disc.gcm", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("failed to open test image: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return fs, f
}

// Layout returns the three-file layout used throughout the tests:
// /A/b.bin, /A/c.bin and /d.bin at 0x1000, 0x2000 and 0x3000, 0x800 bytes each.
func Layout(length int64) *Image {
	return &Image{
		GameID:              "GTST",
		FileSystemOffset:    0x500,
		FileDataStartOffset: 0x1000,
		Length:              length,
		Entries: []Entry{
			Dir("A", 0, 4),
			File("b.bin", 0x1000, 0x800),
			File("c.bin", 0x2000, 0x800),
			File("d.bin", 0x3000, 0x800),
		},
	}
}
