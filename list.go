package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ossyrian/gcmtool/internal/disc"
	gcmtypes "github.com/ossyrian/gcmtool/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List the directory tree of an image",
	Long: `List the directory tree of an image, starting at path (default "/").

Formats:
  text   indented tree with offsets and sizes
  yaml   flat manifest of every entry`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("error getting format flag: %w", err)
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
		node, err := img.Lookup(p)
		if err != nil {
			return err
		}

		return writeList(cmd.OutOrStdout(), img, node, format)
	},
}

func init() {
	listCmd.Flags().StringP("format", "f", "text", "output format (text, yaml)")
}

// manifestEntry is one line of the yaml listing
type manifestEntry struct {
	Path   string `yaml:"path"`
	Type   string `yaml:"type"`
	ID     int    `yaml:"id"`
	Offset uint32 `yaml:"offset,omitempty"`
	Size   uint32 `yaml:"size,omitempty"`
}

type manifest struct {
	GameCode string          `yaml:"game_code"`
	Entries  []manifestEntry `yaml:"entries"`
}

func buildManifest(img *disc.Image, node gcmtypes.Node) (*manifest, error) {
	m := &manifest{GameCode: img.Header().GameCode()}

	err := gcmtypes.Walk(node, func(_ string, n gcmtypes.Node) error {
		entry := manifestEntry{
			Path: img.Path(n.GetID()),
			Type: n.GetKind().String(),
			ID:   n.GetID(),
		}
		if n.GetKind() == gcmtypes.KindFile {
			e, err := img.Entry(n.GetID())
			if err != nil {
				return err
			}
			entry.Offset = e.FileOffset()
			entry.Size = e.FileSize()
		}
		m.Entries = append(m.Entries, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func writeList(w io.Writer, img *disc.Image, node gcmtypes.Node, format string) error {
	switch format {
	case "yaml":
		m, err := buildManifest(img, node)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(m); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()

	case "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		err := gcmtypes.Walk(node, func(p string, n gcmtypes.Node) error {
			name := n.GetName()
			indent := ""
			if p == "/" {
				name = img.Path(n.GetID())
			} else {
				indent = strings.Repeat("  ", strings.Count(p, "/"))
			}

			if n.GetKind() == gcmtypes.KindDirectory {
				fmt.Fprintf(tw, "%s%s\t\t\n", indent, strings.TrimSuffix(name, "/")+"/")
				return nil
			}

			e, err := img.Entry(n.GetID())
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s%s\t%s\t0x%08X\n", indent, name, formatSize(int64(e.FileSize())), e.FileOffset())
			return nil
		})
		if err != nil {
			return err
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown format %q (want text or yaml)", format)
	}
}
