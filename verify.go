package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ossyrian/gcmtool/internal/disc"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the header magic and file data layout of an image",
	Long: `Check the header magic and file data layout of an image.

Reports files that overlap, run past the end of the image or start
before the file data area. Exits non-zero when any problem is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(false)
		if err != nil {
			return err
		}
		defer img.Close()

		return verify(cmd.OutOrStdout(), img)
	},
}

func verify(w io.Writer, img *disc.Image) error {
	problems, err := img.Check()
	if err != nil {
		return err
	}

	count := len(problems)
	if err := img.Header().Validate(); err != nil {
		fmt.Fprintf(w, "header: %v\n", err)
		count++
	}
	for _, p := range problems {
		fmt.Fprintln(w, p)
	}

	if count > 0 {
		return fmt.Errorf("%d problem(s) found in %s", count, img.Header().GameCode())
	}

	_, files := img.Counts()
	fmt.Fprintf(w, "%s: %d files, no problems found\n", img.Header().GameCode(), files)
	return nil
}
