package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/nbview/internal/notebook"
)

var (
	splitAt  int
	splitDir string
)

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split FILE",
	Short: "Split a notebook at a cell index and render both halves",
	Long: `Split a notebook into cells [0, N) and [N, end) and render each half.

Out-of-range indices are clamped, so one half may be empty.
Files are written as NAME.part1.EXT and NAME.part2.EXT.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := newExporter(cmd, args[0])
		if err != nil {
			return err
		}
		doc, err := loadNotebook(args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(splitDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		first, second := doc.Split(splitAt)
		name := baseName(args[0])
		for i, part := range []*notebook.Document{first, second} {
			path := filepath.Join(splitDir, fmt.Sprintf("%s.part%d.%s", name, i+1, exp.Extension()))
			if err := writeDoc(exp, part, path); err != nil {
				return fmt.Errorf("render part %d: %w", i+1, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("wrote %s (%d cells)", path, part.Len())))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().IntVar(&splitAt, "at", 0, "Cell index to split at")
	splitCmd.Flags().StringVarP(&splitDir, "out", "o", ".", "Output directory")
	_ = splitCmd.MarkFlagRequired("at")
}
