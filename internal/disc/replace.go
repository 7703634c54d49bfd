package disc

import (
	"fmt"
	"math"
)

// ReplaceFile writes data as the new payload of the file with the given id
// and rewrites the file's directory entry in place.
//
// It returns false without touching the image when no free region is
// large enough. I/O errors are returned as errors; an error while writing
// the entry leaves the in-memory entry unchanged.
func (img *Image) ReplaceFile(id int, data []byte) (bool, error) {
	e, err := img.FileEntry(id)
	if err != nil {
		return false, err
	}

	p, ok, err := img.PlanReplace(id, int64(len(data)))
	if err != nil {
		return false, err
	}
	if !ok {
		img.logger.Warn("no space for replacement data",
			"path", img.Path(id),
			"size", len(data),
		)
		return false, nil
	}

	offset, err := safeUint32(p.Offset)
	if err != nil {
		return false, fmt.Errorf("new offset of %s: %w", img.Path(id), err)
	}
	size, err := safeUint32(int64(len(data)))
	if err != nil {
		return false, fmt.Errorf("new size of %s: %w", img.Path(id), err)
	}

	if err := img.writer.SetPosition(p.Offset); err != nil {
		return false, err
	}
	if err := img.writer.WriteBytes(data); err != nil {
		return false, fmt.Errorf("failed to write data of %s: %w", img.Path(id), err)
	}

	updated := *e
	updated.SetFileData(offset, size)
	if err := updated.WriteAt(img.writer); err != nil {
		return false, err
	}
	*e = updated

	img.logger.Info("replaced file",
		"path", img.Path(id),
		"offset", offset,
		"size", size,
		"in_place", p.InPlace,
	)

	return true, nil
}

// safeUint32 narrows v to uint32 with bounds checking.
func safeUint32(v int64) (uint32, error) {
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit in uint32", ErrOutOfRange, v)
	}
	return uint32(v), nil
}
