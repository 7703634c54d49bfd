package disc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/ossyrian/gcmtool/internal/endian"
	"github.com/ossyrian/gcmtool/internal/gcm"
	gcmtypes "github.com/ossyrian/gcmtool/internal/types"
)

var (
	// ErrNotFound is returned when a path does not resolve to a node.
	ErrNotFound = gcmtypes.ErrNotFound
	// ErrNotFile is returned when a file operation targets a directory.
	ErrNotFile = errors.New("not a file")
	// ErrOutOfRange is returned when an offset or size does not fit a directory entry.
	ErrOutOfRange = errors.New("value out of range")
)

// Options control how an image is decoded and how replaced data is placed.
type Options struct {
	// Alignment of relocated file data. Zero means gcm.DefaultAlignment.
	Alignment int64
	// NameEncoding decodes FST names. Nil means plain bytes.
	NameEncoding encoding.Encoding
	// AllowGrow lets relocated data extend the stream up to gcm.DiscSize.
	AllowGrow bool
	// Logger receives open and replace events. Nil means slog.Default().
	Logger *slog.Logger
}

// Image is an open GCM image. It owns the stream, the header and the
// directory table; the tree refers to entries by id.
//
// An Image is not safe for concurrent use: every operation moves the
// shared stream position.
type Image struct {
	stream io.ReadWriteSeeker
	reader *endian.Reader
	writer *endian.Writer
	opts   Options
	logger *slog.Logger

	header *gcm.Header
	fs     *gcm.FileSystem
	root   *gcmtypes.DirNode
	paths  []string // indexed by entry id
}

// Open decodes the header and directory table of the image in stream.
// The header magic is not checked; see gcm.Header.Validate.
func Open(stream io.ReadWriteSeeker, opts Options) (*Image, error) {
	if opts.Alignment <= 0 {
		opts.Alignment = gcm.DefaultAlignment
	}
	if opts.NameEncoding == nil {
		opts.NameEncoding = encoding.Nop
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	img := &Image{
		stream: stream,
		reader: endian.NewReader(stream, endian.BigEndian),
		writer: endian.NewWriter(stream, endian.BigEndian),
		opts:   opts,
		logger: logger,
	}

	if err := img.reader.SetPosition(0); err != nil {
		return nil, err
	}
	h, err := gcm.ReadHeader(img.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	img.header = h

	img.fs, err = gcm.ReadFileSystem(img.reader, h, opts.NameEncoding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read file system: %w", err)
	}

	img.root, err = gcm.BuildTree(img.fs.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to build file tree: %w", err)
	}

	img.paths = make([]string, img.fs.Count())
	gcmtypes.Walk(img.root, func(p string, n gcmtypes.Node) error {
		img.paths[n.GetID()] = p
		return nil
	})

	logger.Info("opened image",
		"game_code", h.GameCode(),
		"entry_count", img.fs.Count(),
		"file_system_offset", h.FileSystemOffset,
		"file_data_start", h.FileDataStartOffset,
	)

	return img, nil
}

// Close closes the underlying stream if it is an io.Closer.
func (img *Image) Close() error {
	if c, ok := img.stream.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (img *Image) Header() *gcm.Header { return img.header }

// Tree returns the root of the decoded directory tree.
func (img *Image) Tree() *gcmtypes.DirNode { return img.root }

// FileSystem returns the flat directory table.
func (img *Image) FileSystem() *gcm.FileSystem { return img.fs }

// Alignment returns the alignment used for relocated data.
func (img *Image) Alignment() int64 { return img.opts.Alignment }

// Entry returns the directory table entry with the given id.
func (img *Image) Entry(id int) (*gcm.DirectoryEntry, error) {
	return img.fs.Entry(id)
}

// FileEntry returns the entry with the given id, which must be a file.
func (img *Image) FileEntry(id int) (*gcm.DirectoryEntry, error) {
	e, err := img.fs.Entry(id)
	if err != nil {
		return nil, err
	}
	if e.IsDirectory() {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, img.Path(id))
	}
	return e, nil
}

// Path returns the absolute path of the entry with the given id.
func (img *Image) Path(id int) string {
	if id < 0 || id >= len(img.paths) {
		return ""
	}
	return img.paths[id]
}

// Lookup resolves a path such as "/audio/bgm.adp".
func (img *Image) Lookup(p string) (gcmtypes.Node, error) {
	return gcmtypes.Find(img.root, p)
}

// Counts returns the number of directories and files, root excluded.
func (img *Image) Counts() (dirs, files int) {
	for i := range img.fs.Entries {
		if img.fs.Entries[i].IsDirectory() {
			dirs++
		} else {
			files++
		}
	}
	return dirs, files
}

// Length returns the current stream length.
func (img *Image) Length() (int64, error) {
	return img.reader.Length()
}
