package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/nbview/internal/export"
	"github.com/dgallion1/nbview/internal/notebook"
)

var (
	format    string
	outPath   string
	codeStyle string
	termStyle string
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Render a notebook",
	Long: `Render a notebook to html, docx, term, json or yaml.

Without --out the result is written to stdout.`,
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

		var buf bytes.Buffer
		if err := exp.Export(doc, &buf); err != nil {
			return fmt.Errorf("render %s: %w", args[0], err)
		}
		if outPath == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("wrote "+outPath))
		return nil
	},
}

func newExporter(cmd *cobra.Command, path string) (export.Exporter, error) {
	log, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return export.NewExporter(format, export.Options{
		CodeStyle: codeStyle,
		TermStyle: termStyle,
		Title:     baseName(path),
		Logger:    log,
	})
}

// baseName strips directory and extension from a notebook path.
func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// writeDoc exports doc to path.
func writeDoc(exp export.Exporter, doc *notebook.Document, path string) error {
	var buf bytes.Buffer
	if err := exp.Export(doc, &buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func init() {
	rootCmd.AddCommand(renderCmd)

	for _, c := range []*cobra.Command{renderCmd, splitCmd} {
		c.Flags().StringVarP(&format, "format", "f", "html", "Output format: "+strings.Join(export.Formats(), ", "))
		c.Flags().StringVar(&codeStyle, "code-style", "github", "Chroma style for code highlighting")
		c.Flags().StringVar(&termStyle, "term-style", "dark", "Glamour style for terminal markdown")
	}
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
}
