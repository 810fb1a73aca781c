// Package cli implements the nbview command-line interface.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/nbview/internal/logging"
	"github.com/dgallion1/nbview/internal/notebook"
)

var (
	verbose  bool
	vegaLite bool
	version  string = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nbview",
	Short: "Render Jupyter notebooks to HTML, DOCX, terminal and trace formats",
	Long: `nbview classifies the outputs of a Jupyter notebook and renders every cell
according to its display tags (skip, hide_input, collapsed_output, ...).

Quick Start:
  nbview render analysis.ipynb --out analysis.html
  nbview render analysis.ipynb --format term
  nbview split analysis.ipynb --at 10 --out parts/
  nbview inspect analysis.ipynb`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&vegaLite, "vega-lite", false, "Render Vega-Lite (Altair) outputs as charts")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// newLogger writes text records to w; debug when --verbose is set.
func newLogger(w io.Writer) (*slog.Logger, error) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log, _, err := logging.New(w, logging.Options{Level: level, Text: true})
	return log, err
}

func loadNotebook(path string) (*notebook.Document, error) {
	cls := notebook.NewClassifier(notebook.WithDeclarativeCharts(vegaLite))
	doc, err := notebook.Load(path, notebook.WithClassifier(cls))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}
