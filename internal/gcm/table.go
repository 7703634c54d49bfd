package gcm

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/ossyrian/gcmtool/internal/endian"
)

// ErrMalformedTable is returned when the directory table is internally inconsistent.
var ErrMalformedTable = errors.New("malformed directory table")

// FileSystem is the decoded flat directory table.
type FileSystem struct {
	Root DirectoryEntry
	// Entries holds ids 1..Count()-1; the entry with id i is Entries[i-1].
	Entries        []DirectoryEntry
	NameTableStart int64
}

// Count returns the number of entries including the root.
func (fs *FileSystem) Count() int { return len(fs.Entries) + 1 }

// Entry returns the entry with the given id (1-based).
func (fs *FileSystem) Entry(id int) (*DirectoryEntry, error) {
	if id < 1 || id > len(fs.Entries) {
		return nil, fmt.Errorf("entry id %d out of range [1, %d]", id, len(fs.Entries))
	}
	return &fs.Entries[id-1], nil
}

// ReadFileSystem decodes the directory table described by h.
// The root's setting1 gives the total entry count including itself; the
// name table follows the last entry. Names are resolved with enc.
func ReadFileSystem(r *endian.Reader, h *Header, enc encoding.Encoding, logger *slog.Logger) (*FileSystem, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := r.SetPosition(int64(h.FileSystemOffset)); err != nil {
		return nil, fmt.Errorf("failed to seek to file system: %w", err)
	}

	root, err := ReadDirectoryEntry(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read root entry: %w", err)
	}
	if !root.IsDirectory() {
		return nil, fmt.Errorf("%w: root entry is not a directory", ErrMalformedTable)
	}

	count := int64(root.NextID())
	if count < 1 {
		return nil, fmt.Errorf("%w: entry count %d", ErrMalformedTable, count)
	}
	if h.FileSystemSize != 0 && count*EntrySize > int64(h.FileSystemSize) {
		return nil, fmt.Errorf("%w: %d entries do not fit in a 0x%X byte file system",
			ErrMalformedTable, count, h.FileSystemSize)
	}

	length, err := r.Length()
	if err != nil {
		return nil, err
	}
	if int64(h.FileSystemOffset)+count*EntrySize > length {
		return nil, fmt.Errorf("%w: %d entries at 0x%X run past the end of a 0x%X byte image",
			ErrMalformedTable, count, h.FileSystemOffset, length)
	}

	logger.Debug("reading directory table",
		"offset", h.FileSystemOffset,
		"entry_count", count,
	)

	fs := &FileSystem{
		Root:    root,
		Entries: make([]DirectoryEntry, 0, count-1),
	}
	for i := int64(1); i < count; i++ {
		e, err := ReadDirectoryEntry(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read entry %d: %w", i, err)
		}
		fs.Entries = append(fs.Entries, e)
	}

	if fs.NameTableStart, err = r.Position(); err != nil {
		return nil, err
	}

	for i := range fs.Entries {
		e := &fs.Entries[i]
		if err := r.SetPosition(fs.NameTableStart + int64(e.NameOffset)); err != nil {
			return nil, err
		}
		if e.Name, err = r.ReadStringNT(enc); err != nil {
			return nil, fmt.Errorf("failed to read name of entry %d: %w", i+1, err)
		}

		logger.Debug("read directory entry",
			"id", i+1,
			"name", e.Name,
			"directory", e.IsDirectory(),
			"setting0", e.Setting0,
			"setting1", e.Setting1,
		)
	}

	return fs, nil
}
