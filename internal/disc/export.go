package disc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ossyrian/gcmtool/internal/gcm"
	gcmtypes "github.com/ossyrian/gcmtool/internal/types"
)

// payloadEntry returns the file entry with the given id after checking
// that its payload lies inside the stream.
func (img *Image) payloadEntry(id int) (*gcm.DirectoryEntry, error) {
	e, err := img.FileEntry(id)
	if err != nil {
		return nil, err
	}
	length, err := img.reader.Length()
	if err != nil {
		return nil, err
	}
	if e.End() > length {
		return nil, fmt.Errorf("failed to read %s: [0x%X, 0x%X) runs past the end of a 0x%X byte image: %w",
			img.Path(id), e.FileOffset(), e.End(), length, io.ErrUnexpectedEOF)
	}
	return e, nil
}

// ReadFile returns the payload of the file with the given id.
func (img *Image) ReadFile(id int) ([]byte, error) {
	e, err := img.payloadEntry(id)
	if err != nil {
		return nil, err
	}
	if err := img.reader.SetPosition(int64(e.FileOffset())); err != nil {
		return nil, err
	}
	data, err := img.reader.ReadBytes(int(e.FileSize()))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", img.Path(id), err)
	}
	return data, nil
}

// ExportFile copies the payload of the file with the given id to w.
func (img *Image) ExportFile(id int, w io.Writer) error {
	e, err := img.payloadEntry(id)
	if err != nil {
		return err
	}
	if err := img.reader.SetPosition(int64(e.FileOffset())); err != nil {
		return err
	}

	if _, err := io.CopyN(w, img.stream, int64(e.FileSize())); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("failed to export %s: %w", img.Path(id), err)
	}
	return nil
}

// ExportDirectory writes node's subtree below dest on fsys, creating
// directories as needed. File contents are copied verbatim.
func (img *Image) ExportDirectory(node *gcmtypes.DirNode, fsys afero.Fs, dest string) error {
	if err := fsys.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dest, err)
	}

	for _, child := range node.Children {
		name := child.GetName()
		if !safeName(name) {
			return fmt.Errorf("refusing to export entry with unsafe name %q", name)
		}
		target := filepath.Join(dest, name)

		switch c := child.(type) {
		case *gcmtypes.DirNode:
			if err := img.ExportDirectory(c, fsys, target); err != nil {
				return err
			}
		case *gcmtypes.FileNode:
			if err := img.exportTo(c.ID, fsys, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (img *Image) exportTo(id int, fsys afero.Fs, target string) error {
	out, err := fsys.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	if err := img.ExportFile(id, out); err != nil {
		out.Close()
		return err
	}

	img.logger.Debug("exported file", "path", img.Path(id), "target", target)

	return out.Close()
}

// safeName rejects names that would escape the export directory.
func safeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
