package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ossyrian/gcmtool/internal/disc"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the disc header and file system summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(false)
		if err != nil {
			return err
		}
		defer img.Close()

		opts, err := cfg.DiscOptions()
		if err != nil {
			return err
		}

		title, err := img.Header().Title(opts.NameEncoding)
		if err != nil {
			return fmt.Errorf("failed to decode title: %w", err)
		}

		return writeInfo(cmd.OutOrStdout(), img, title)
	},
}

func writeInfo(w io.Writer, img *disc.Image, title string) error {
	h := img.Header()
	dirs, files := img.Counts()

	length, err := img.Length()
	if err != nil {
		return err
	}

	console := "GameCube"
	if h.IsWii() {
		console = "Wii"
	}
	if h.Validate() != nil {
		console = "unknown (bad magic)"
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Game code:\t%s\n", h.GameCode())
	fmt.Fprintf(tw, "Title:\t%s\n", title)
	fmt.Fprintf(tw, "Console:\t%s\n", console)
	fmt.Fprintf(tw, "Disc / version:\t%d / %d\n", h.DiscID, h.Version)
	fmt.Fprintf(tw, "DOL offset:\t0x%08X\n", h.DOLOffset)
	fmt.Fprintf(tw, "FST offset:\t0x%08X\n", h.FileSystemOffset)
	fmt.Fprintf(tw, "FST size:\t0x%X (max 0x%X)\n", h.FileSystemSize, h.FileSystemMaxSize)
	fmt.Fprintf(tw, "File data start:\t0x%08X\n", h.FileDataStartOffset)
	fmt.Fprintf(tw, "Directories:\t%d\n", dirs)
	fmt.Fprintf(tw, "Files:\t%d\n", files)
	if first, ok := img.FirstFileOffset(); ok {
		fmt.Fprintf(tw, "First file offset:\t0x%08X\n", first)
	}
	if last, ok := img.LastFileOffset(); ok {
		fmt.Fprintf(tw, "Last file offset:\t0x%08X\n", last)
	}
	fmt.Fprintf(tw, "Image size:\t%s (0x%X)\n", formatSize(length), length)
	fmt.Fprintf(tw, "Alignment:\t0x%X\n", img.Alignment())

	return tw.Flush()
}

// formatSize renders n in 1024-based units rounded half to even to one
// decimal, dropping a zero fraction: "2 kB", "1.5 kB". Values up to and
// including 1024 are printed in bytes.
func formatSize(n int64) string {
	const unit = 1024
	units := []string{"kB", "MB", "GB", "TB"}

	if n <= unit {
		return fmt.Sprintf("%d B", n)
	}

	size := float64(n) / unit
	i := 0
	for size > unit && i < len(units)-1 {
		size /= unit
		i++
	}
	rounded := math.RoundToEven(size*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[i]
}
