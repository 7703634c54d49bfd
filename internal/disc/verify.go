package disc

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/ossyrian/gcmtool/internal/gcm"
)

// ProblemKind classifies a layout problem found by Check.
type ProblemKind int

const (
	ProblemOverlap ProblemKind = iota
	ProblemPastEnd
	ProblemBeforeData
)

func (k ProblemKind) String() string {
	switch k {
	case ProblemOverlap:
		return "overlap"
	case ProblemPastEnd:
		return "past-end"
	case ProblemBeforeData:
		return "before-data"
	default:
		return "unknown"
	}
}

// Problem is one inconsistency in the file data layout.
type Problem struct {
	Kind   ProblemKind
	ID     int
	Path   string
	Detail string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Kind, p.Path, p.Detail)
}

type idEntry struct {
	id int
	e  *gcm.DirectoryEntry
}

// files returns the file entries with their ids, empty files excluded.
func (img *Image) files() []idEntry {
	var out []idEntry
	for i := range img.fs.Entries {
		e := &img.fs.Entries[i]
		if !e.IsDirectory() && e.FileSize() != 0 {
			out = append(out, idEntry{id: i + 1, e: e})
		}
	}
	return out
}

// FirstFileOffset returns the lowest payload offset of any non-empty file.
func (img *Image) FirstFileOffset() (int64, bool) {
	files := img.files()
	if len(files) == 0 {
		return 0, false
	}
	first := lo.MinBy(files, func(a, b idEntry) bool { return a.e.FileOffset() < b.e.FileOffset() })
	return int64(first.e.FileOffset()), true
}

// LastFileOffset returns the highest payload offset of any non-empty file.
func (img *Image) LastFileOffset() (int64, bool) {
	files := img.files()
	if len(files) == 0 {
		return 0, false
	}
	last := lo.MaxBy(files, func(a, b idEntry) bool { return a.e.FileOffset() > b.e.FileOffset() })
	return int64(last.e.FileOffset()), true
}

// Check reports payloads that overlap each other, run past the end of the
// stream or start before FileDataStartOffset. The allocator assumes none
// of these occur.
func (img *Image) Check() ([]Problem, error) {
	length, err := img.reader.Length()
	if err != nil {
		return nil, err
	}

	files := img.files()
	slices.SortStableFunc(files, func(a, b idEntry) int {
		return cmp.Compare(a.e.FileOffset(), b.e.FileOffset())
	})

	var problems []Problem
	add := func(kind ProblemKind, id int, format string, args ...any) {
		problems = append(problems, Problem{
			Kind:   kind,
			ID:     id,
			Path:   img.Path(id),
			Detail: fmt.Sprintf(format, args...),
		})
	}

	var prev *idEntry
	for i := range files {
		f := files[i]
		start, end := int64(f.e.FileOffset()), f.e.End()

		if start < int64(img.header.FileDataStartOffset) {
			add(ProblemBeforeData, f.id, "starts at 0x%X, file data starts at 0x%X", start, img.header.FileDataStartOffset)
		}
		if end > length {
			add(ProblemPastEnd, f.id, "ends at 0x%X, image is 0x%X bytes", end, length)
		}
		if prev != nil && start < prev.e.End() {
			add(ProblemOverlap, f.id, "[0x%X, 0x%X) overlaps %s ending at 0x%X", start, end, img.Path(prev.id), prev.e.End())
		}
		if prev == nil || end > prev.e.End() {
			prev = &files[i]
		}
	}

	return problems, nil
}
