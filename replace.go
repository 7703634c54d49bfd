package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/gcmtool/internal/disc"
	gcmtypes "github.com/ossyrian/gcmtool/internal/types"
)

// errNoSpace is returned when the image has no free region for the new data.
var errNoSpace = errors.New("no free region large enough")

var replaceCmd = &cobra.Command{
	Use:   "replace <path> <source>",
	Short: "Replace a file in an image with the contents of source",
	Long: `Replace a file in an image with the contents of a local file.

The new data keeps the file's offset when it fits before the next file.
Otherwise it is placed in the first free region after the file data start.
The directory entry is rewritten in place; nothing else in the image moves.

Examples:
  gcmtool replace -i game.gcm /opening.bnr ./opening.bnr
  gcmtool replace -i game.gcm /audio/bgm.adp ./bgm.adp --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return fmt.Errorf("error getting dry-run flag: %w", err)
		}

		data, err := afero.ReadFile(appFs, args[1])
		if err != nil {
			return fmt.Errorf("failed to read replacement data: %w", err)
		}

		img, err := openImage(!dryRun)
		if err != nil {
			return err
		}
		defer img.Close()

		return replace(cmd.OutOrStdout(), img, args[0], data, dryRun)
	},
}

func init() {
	replaceCmd.Flags().Bool("dry-run", false, "print where the data would go without writing")
}

func replace(w io.Writer, img *disc.Image, p string, data []byte, dryRun bool) error {
	node, err := img.Lookup(p)
	if err != nil {
		return err
	}
	file, ok := node.(*gcmtypes.FileNode)
	if !ok {
		return fmt.Errorf("%w: %s", disc.ErrNotFile, img.Path(node.GetID()))
	}

	e, err := img.Entry(file.ID)
	if err != nil {
		return err
	}
	old := *e

	placement, ok, err := img.PlanReplace(file.ID, int64(len(data)))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s needs %d bytes", errNoSpace, img.Path(file.ID), len(data))
	}

	if dryRun {
		fmt.Fprintf(w, "%s: 0x%08X (%s) -> 0x%08X (%s)", img.Path(file.ID),
			old.FileOffset(), formatSize(int64(old.FileSize())),
			placement.Offset, formatSize(placement.Size))
		if placement.InPlace {
			fmt.Fprint(w, ", in place")
		}
		fmt.Fprintln(w)
		for _, r := range placement.Regions {
			fmt.Fprintf(w, "  free 0x%08X-0x%08X (%s)\n", r.Offset, r.End(), formatSize(r.Size))
		}
		return nil
	}

	ok, err = img.ReplaceFile(file.ID, data)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s needs %d bytes", errNoSpace, img.Path(file.ID), len(data))
	}

	fmt.Fprintf(w, "%s: 0x%08X -> 0x%08X, %d bytes\n", img.Path(file.ID), old.FileOffset(), e.FileOffset(), e.FileSize())
	return nil
}
