package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ossyrian/gcmtool/internal/disc"
	gcmtypes "github.com/ossyrian/gcmtool/internal/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [path]",
	Short: "Extract a file or directory from an image",
	Long: `Extract a file or directory from an image. File contents are written verbatim.

A file is written to --output, or into --output when it names an existing
directory. A directory is exported recursively below --output.

Examples:
  gcmtool extract -i game.gcm -o ./root
  gcmtool extract -i game.gcm /opening.bnr -o opening.bnr`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, err := cmd.Flags().GetString("output")
		if err != nil {
			return fmt.Errorf("error getting output flag: %w", err)
		}

		img, err := openImage(false)
		if err != nil {
			return err
		}
		defer img.Close()

		p := "/"
		if len(args) == 1 {
			p = args[0]
		}

		return extract(img, p, appFs, output)
	},
}

func init() {
	extractCmd.Flags().StringP("output", "o", "", "destination file or directory (required)")
	extractCmd.MarkFlagRequired("output")
}

func extract(img *disc.Image, p string, fsys afero.Fs, output string) error {
	node, err := img.Lookup(p)
	if err != nil {
		return err
	}

	switch n := node.(type) {
	case *gcmtypes.DirNode:
		if err := img.ExportDirectory(n, fsys, output); err != nil {
			return err
		}
		dirs, files := 0, 0
		gcmtypes.Walk(n, func(_ string, c gcmtypes.Node) error {
			if c.GetKind() == gcmtypes.KindFile {
				files++
			} else if c != n {
				dirs++
			}
			return nil
		})
		slog.Info("extracted directory", "path", img.Path(n.ID), "output", output, "directories", dirs, "files", files)

	case *gcmtypes.FileNode:
		target := output
		if isDir, _ := afero.IsDir(fsys, output); isDir {
			target = filepath.Join(output, n.Name)
		}
		if dir := filepath.Dir(target); dir != "." {
			if err := fsys.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}

		out, err := fsys.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		if err := img.ExportFile(n.ID, out); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		slog.Info("extracted file", "path", img.Path(n.ID), "output", target)
	}

	return nil
}
