package disc_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"

	"github.com/ossyrian/gcmtool/internal/disc"
	"github.com/ossyrian/gcmtool/internal/gcm"
	"github.com/ossyrian/gcmtool/internal/gcm/gcmtest"
)

func fill(size int, b byte) []byte {
	return bytes.Repeat([]byte{b}, size)
}

// packed has no gaps at all: every byte after the data start is in use.
func packed() *gcmtest.Image {
	return &gcmtest.Image{
		GameID:              "GPCK",
		FileSystemOffset:    0x500,
		FileDataStartOffset: 0x1000,
		Length:              0x2800,
		Entries: []gcmtest.Entry{
			gcmtest.File("x.bin", 0x1000, 0x800),
			gcmtest.File("y.bin", 0x1800, 0x800),
			gcmtest.File("z.bin", 0x2000, 0x800),
		},
	}
}

func snapshot(t *testing.T, f afero.File) []byte {
	t.Helper()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestReplaceFile_Placement(t *testing.T) {
	tests := []struct {
		name       string
		image      func() *gcmtest.Image
		opts       disc.Options
		id         int
		size       int
		wantOffset uint32
		wantPlace  bool
	}{
		{
			name:       "shrink stays in place",
			image:      func() *gcmtest.Image { return gcmtest.Layout(0x6000) },
			id:         2,
			size:       0x700,
			wantOffset: 0x1000,
			wantPlace:  true,
		},
		{
			name:       "grow into gap before next file",
			image:      func() *gcmtest.Image { return gcmtest.Layout(0x6000) },
			id:         2,
			size:       0x1000,
			wantOffset: 0x1000,
			wantPlace:  true,
		},
		{
			name:       "too large for gap relocates",
			image:      func() *gcmtest.Image { return gcmtest.Layout(0x6000) },
			id:         2,
			size:       0x1200,
			wantOffset: 0x3800,
		},
		{
			name:       "last file has no next file",
			image:      func() *gcmtest.Image { return gcmtest.Layout(0x4000) },
			id:         4,
			size:       0x900,
			wantOffset: 0x2800,
		},
		{
			name: "unaligned file end with 0x80 alignment",
			image: func() *gcmtest.Image {
				img := gcmtest.Layout(0x6000)
				img.Entries[1] = gcmtest.File("b.bin", 0x1000, 0x801)
				return img
			},
			opts:       disc.Options{Alignment: 0x80},
			id:         3,
			size:       0x1100,
			wantOffset: 0x1880,
		},
		{
			name: "unaligned file data start",
			image: func() *gcmtest.Image {
				return &gcmtest.Image{
					GameID:              "GUNA",
					FileSystemOffset:    0x500,
					FileDataStartOffset: 0x1001,
					Length:              0x4000,
					Entries:             []gcmtest.Entry{gcmtest.File("only.bin", 0x1080, 0x100)},
				}
			},
			opts:       disc.Options{Alignment: 0x80},
			id:         1,
			size:       0x2000,
			wantOffset: 0x1080,
		},
		{
			name:       "allow grow past end of stream",
			image:      packed,
			opts:       disc.Options{AllowGrow: true},
			id:         1,
			size:       0x900,
			wantOffset: 0x2800,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := open(t, tt.image(), tt.opts)
			data := fill(tt.size, 0xAB)

			p, ok, err := d.PlanReplace(tt.id, int64(tt.size))
			if err != nil || !ok {
				t.Fatalf("PlanReplace() = %v, %v", ok, err)
			}
			if p.InPlace != tt.wantPlace {
				t.Errorf("PlanReplace() InPlace = %v, want %v", p.InPlace, tt.wantPlace)
			}

			ok, err = d.ReplaceFile(tt.id, data)
			if err != nil {
				t.Fatalf("ReplaceFile() failed: %v", err)
			}
			if !ok {
				t.Fatal("ReplaceFile() = false, want true")
			}

			e, err := d.Entry(tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if e.FileOffset() != tt.wantOffset {
				t.Errorf("offset = 0x%X, want 0x%X", e.FileOffset(), tt.wantOffset)
			}
			if e.FileSize() != uint32(tt.size) {
				t.Errorf("size = 0x%X, want 0x%X", e.FileSize(), tt.size)
			}
			if int64(e.FileOffset())%d.Alignment() != 0 {
				t.Errorf("offset 0x%X not aligned to 0x%X", e.FileOffset(), d.Alignment())
			}

			got, err := d.ReadFile(tt.id)
			if err != nil {
				t.Fatalf("ReadFile() failed: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("ReadFile() does not return the replacement data")
			}

			problems, err := d.Check()
			if err != nil {
				t.Fatal(err)
			}
			for _, p := range problems {
				t.Errorf("Check() after replace: %s", p)
			}
		})
	}
}

func TestReplaceFile_KeepsOtherFiles(t *testing.T) {
	img := gcmtest.Layout(0x6000)
	d := open(t, img, disc.Options{})

	if ok, err := d.ReplaceFile(2, fill(0x1200, 0xCD)); err != nil || !ok {
		t.Fatalf("ReplaceFile() = %v, %v", ok, err)
	}

	for _, id := range []int{3, 4} {
		got, err := d.ReadFile(id)
		if err != nil {
			t.Fatalf("ReadFile(%d) failed: %v", id, err)
		}
		if !bytes.Equal(got, img.Payload(id)) {
			t.Errorf("payload of %s changed", d.Path(id))
		}
	}
}

func TestReplaceFile_NoSpace(t *testing.T) {
	img := packed()
	_, f := img.Open(t)

	d, err := disc.Open(f, disc.Options{Logger: discard})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	before := snapshot(t, f)
	entry, err := d.Entry(1)
	if err != nil {
		t.Fatal(err)
	}
	wantEntry := *entry

	if _, ok, err := d.PlanReplace(1, 0x900); err != nil || ok {
		t.Errorf("PlanReplace() = %v, %v; want false, nil", ok, err)
	}

	ok, err := d.ReplaceFile(1, fill(0x900, 0xEE))
	if err != nil {
		t.Fatalf("ReplaceFile() failed: %v", err)
	}
	if ok {
		t.Fatal("ReplaceFile() = true, want false")
	}

	if *entry != wantEntry {
		t.Errorf("entry changed: got %+v, want %+v", *entry, wantEntry)
	}
	if !bytes.Equal(snapshot(t, f), before) {
		t.Error("image bytes changed after failed replace")
	}
}

func TestReplaceFile_Reopen(t *testing.T) {
	img := gcmtest.Layout(0x6000)
	fs, f := img.Open(t)

	d, err := disc.Open(f, disc.Options{Logger: discard})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	data := fill(0x1200, 0x5A)
	if ok, err := d.ReplaceFile(2, data); err != nil || !ok {
		t.Fatalf("ReplaceFile() = %v, %v", ok, err)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	f2, err := fs.Open("disc.gcm")
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()

	reopened, err := disc.Open(f2, disc.Options{Logger: discard})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	n, err := reopened.Lookup("/A/b.bin")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	e, err := reopened.Entry(n.GetID())
	if err != nil {
		t.Fatal(err)
	}
	if e.FileOffset() != 0x3800 || e.FileSize() != 0x1200 {
		t.Errorf("reopened entry = 0x%X/0x%X, want 0x3800/0x1200", e.FileOffset(), e.FileSize())
	}
	if e.Name != "b.bin" {
		t.Errorf("reopened name = %q, want %q", e.Name, "b.bin")
	}

	got, err := reopened.ReadFile(n.GetID())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("reopened payload does not match replacement data")
	}
}

func TestReplaceFile_Errors(t *testing.T) {
	d := open(t, gcmtest.Layout(0x6000), disc.Options{})

	if _, err := d.ReplaceFile(1, []byte{1}); !errors.Is(err, disc.ErrNotFile) {
		t.Errorf("ReplaceFile(directory) error = %v, want ErrNotFile", err)
	}
	if _, err := d.ReplaceFile(9, []byte{1}); err == nil {
		t.Error("ReplaceFile(9) succeeded, want out of range error")
	}
}

func TestPlanReplace_Regions(t *testing.T) {
	d := open(t, gcmtest.Layout(0x6000), disc.Options{})

	p, ok, err := d.PlanReplace(2, 0x1200)
	if err != nil || !ok {
		t.Fatalf("PlanReplace() = %v, %v", ok, err)
	}

	want := []disc.Region{
		{Offset: 0x1000, Size: 0x1000},
		{Offset: 0x2800, Size: 0x800},
		{Offset: 0x3800, Size: 0x2800},
	}
	if len(p.Regions) != len(want) {
		t.Fatalf("PlanReplace() regions = %+v, want %+v", p.Regions, want)
	}
	for i := range want {
		if p.Regions[i] != want[i] {
			t.Errorf("region %d = %+v, want %+v", i, p.Regions[i], want[i])
		}
	}

	// Planning never writes.
	e, _ := d.Entry(2)
	if e.FileOffset() != 0x1000 || e.FileSize() != 0x800 {
		t.Errorf("entry changed by PlanReplace: 0x%X/0x%X", e.FileOffset(), e.FileSize())
	}
}

func TestReplaceFile_AllowGrowLength(t *testing.T) {
	d := open(t, packed(), disc.Options{AllowGrow: true})

	if ok, err := d.ReplaceFile(1, fill(0x900, 1)); err != nil || !ok {
		t.Fatalf("ReplaceFile() = %v, %v", ok, err)
	}
	length, err := d.Length()
	if err != nil {
		t.Fatal(err)
	}
	if length != 0x3100 {
		t.Errorf("Length() = 0x%X, want 0x3100", length)
	}
	if length > gcm.DiscSize {
		t.Errorf("Length() 0x%X exceeds disc size", length)
	}
}
