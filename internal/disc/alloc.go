package disc

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/ossyrian/gcmtool/internal/endian"
	"github.com/ossyrian/gcmtool/internal/gcm"
)

// Region is a contiguous byte range of the image.
type Region struct {
	Offset int64
	Size   int64
}

// End returns the offset one past the region's last byte.
func (r Region) End() int64 { return r.Offset + r.Size }

// Placement is where replacement data of a given size would be written.
type Placement struct {
	Offset int64
	Size   int64
	// InPlace is set when the data fits between the file's current offset
	// and the next file, so the offset does not change.
	InPlace bool
	// Regions is the free region list the offset was chosen from.
	// It is empty when InPlace is set.
	Regions []Region
}

// PlanReplace computes where size bytes replacing the file with the given
// id would go, without writing anything. ok is false when no free region
// is large enough.
//
// The file's current slot is tried first: if the distance to the next file
// is large enough the offset is kept, whether the file grows or shrinks.
// Otherwise every other file is cut out of [FileDataStartOffset, end of
// stream) and the first remaining region that fits is used. Bytes of the
// old payload are never reclaimed.
func (img *Image) PlanReplace(id int, size int64) (p Placement, ok bool, err error) {
	target, err := img.FileEntry(id)
	if err != nil {
		return p, false, err
	}
	length, err := img.reader.Length()
	if err != nil {
		return p, false, err
	}

	others := lo.Filter(img.fs.Entries, func(e gcm.DirectoryEntry, _ int) bool {
		return !e.IsDirectory() && e.SourceAddress != target.SourceAddress && e.FileSize() != 0
	})

	p.Size = size
	if next, found := nextFileOffset(target, others); found && next < length {
		if next-int64(target.FileOffset()) >= size {
			p.Offset = int64(target.FileOffset())
			p.InPlace = true
			return p, true, nil
		}
	}

	limit := length
	if img.opts.AllowGrow {
		limit = max(limit, gcm.DiscSize)
	}
	p.Regions = freeRegions(int64(img.header.FileDataStartOffset), limit, others, img.opts.Alignment)

	need := endian.AlignUp(size, img.opts.Alignment)
	region, found := lo.Find(p.Regions, func(r Region) bool { return r.Size >= need })
	if !found {
		img.logger.Debug("no free region large enough",
			"path", img.Path(id),
			"size", size,
			"aligned_size", need,
			"regions", len(p.Regions),
		)
		return p, false, nil
	}
	p.Offset = region.Offset
	return p, true, nil
}

// nextFileOffset returns the smallest offset among files that is not
// below the target's offset.
func nextFileOffset(target *gcm.DirectoryEntry, files []gcm.DirectoryEntry) (int64, bool) {
	next := int64(math.MaxInt64)
	for i := range files {
		off := int64(files[i].FileOffset())
		if off >= int64(target.FileOffset()) && off < next {
			next = off
		}
	}
	return next, next != math.MaxInt64
}

// freeRegions returns the parts of [start, limit) not covered by files.
// start is aligned up like every other region. Files are processed in table order; a region hit by a file is removed
// and the slices before and after the file are appended. Each slice's
// start is aligned up and slices smaller than the alignment are dropped.
func freeRegions(start, limit int64, files []gcm.DirectoryEntry, alignment int64) []Region {
	var regions []Region
	if limit > start {
		if r := alignRegion(Region{Offset: start, Size: limit - start}, alignment); r.Size >= alignment {
			regions = append(regions, r)
		}
	}

	for i := range files {
		fileStart, fileEnd := int64(files[i].FileOffset()), files[i].End()

		for j := 0; j < len(regions); {
			r := regions[j]
			if fileEnd <= r.Offset || fileStart >= r.End() {
				j++
				continue
			}

			regions = slices.Delete(regions, j, j+1)
			for _, sub := range []Region{
				{Offset: r.Offset, Size: fileStart - r.Offset},
				{Offset: fileEnd, Size: r.End() - fileEnd},
			} {
				sub = alignRegion(sub, alignment)
				if sub.Size >= alignment {
					regions = append(regions, sub)
				}
			}
		}
	}
	return regions
}

// alignRegion moves r's start up to the next multiple of alignment,
// shrinking it by the same amount.
func alignRegion(r Region, alignment int64) Region {
	aligned := endian.AlignUp(r.Offset, alignment)
	r.Size -= aligned - r.Offset
	r.Offset = aligned
	return r
}
