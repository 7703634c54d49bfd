package gcm

import (
	"fmt"

	"github.com/ossyrian/gcmtool/internal/endian"
)

// DirectoryEntry is one 12-byte record of the directory table.
//
//	[flag(1)][name_offset(3)][setting0(4)][setting1(4)]
//
// For directories setting0 is the parent id and setting1 the id one past
// the directory's last descendant. For files they are the absolute data
// offset and the size in bytes.
type DirectoryEntry struct {
	Flag       byte // non-zero for directories
	NameOffset uint32
	Setting0   uint32
	Setting1   uint32

	Name          string // resolved from the name table
	SourceAddress int64  // stream position of the record
}

func (e *DirectoryEntry) IsDirectory() bool { return e.Flag != 0 }

func (e *DirectoryEntry) ParentID() uint32 { return e.Setting0 }
func (e *DirectoryEntry) NextID() uint32   { return e.Setting1 }

func (e *DirectoryEntry) FileOffset() uint32 { return e.Setting0 }
func (e *DirectoryEntry) FileSize() uint32   { return e.Setting1 }

// End returns the offset one past the file's last byte.
func (e *DirectoryEntry) End() int64 {
	return int64(e.Setting0) + int64(e.Setting1)
}

// SetFileData points a file entry at new payload bytes.
func (e *DirectoryEntry) SetFileData(offset, size uint32) {
	e.Setting0 = offset
	e.Setting1 = size
}

// ReadDirectoryEntry reads one record at the current position and
// remembers where it came from.
func ReadDirectoryEntry(r *endian.Reader) (DirectoryEntry, error) {
	var e DirectoryEntry

	pos, err := r.Position()
	if err != nil {
		return e, err
	}
	e.SourceAddress = pos

	if e.Flag, err = r.ReadByte(); err != nil {
		return e, fmt.Errorf("failed to read entry type at 0x%X: %w", pos, err)
	}
	if e.NameOffset, err = r.ReadUint24(); err != nil {
		return e, fmt.Errorf("failed to read name offset at 0x%X: %w", pos, err)
	}
	if e.Setting0, err = r.ReadUint32(); err != nil {
		return e, fmt.Errorf("failed to read entry at 0x%X: %w", pos, err)
	}
	if e.Setting1, err = r.ReadUint32(); err != nil {
		return e, fmt.Errorf("failed to read entry at 0x%X: %w", pos, err)
	}
	return e, nil
}

// Write writes the 12-byte record at the writer's current position.
func (e *DirectoryEntry) Write(w *endian.Writer) error {
	if err := w.WriteByte(e.Flag); err != nil {
		return err
	}
	if err := w.WriteUint24(e.NameOffset); err != nil {
		return err
	}
	if err := w.WriteUint32(e.Setting0); err != nil {
		return err
	}
	return w.WriteUint32(e.Setting1)
}

// WriteAt rewrites the record in place at its SourceAddress.
func (e *DirectoryEntry) WriteAt(w *endian.Writer) error {
	if err := w.SetPosition(e.SourceAddress); err != nil {
		return err
	}
	if err := e.Write(w); err != nil {
		return fmt.Errorf("failed to write entry %q at 0x%X: %w", e.Name, e.SourceAddress, err)
	}
	return nil
}
