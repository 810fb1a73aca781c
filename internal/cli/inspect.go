package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgallion1/nbview/internal/display"
	"github.com/dgallion1/nbview/internal/notebook"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show how each cell of a notebook will be rendered",
	Long: `Inspect a notebook without rendering it.

For every cell this prints:
  • the cell type and tags
  • the display action the tags resolve to
  • the classified output kinds with payload sizes
  • how many outputs have no renderable kind`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		doc, err := loadNotebook(args[0])
		if err != nil {
			return err
		}

		summary := fmt.Sprintf("%s: %d cell(s), language %s", args[0], doc.Len(), doc.Language())
		if kernel := doc.Metadata().Kernelspec.Name; kernel != "" {
			summary += ", kernel " + kernel
		}
		summary += ", " + humanize.Bytes(uint64(info.Size()))

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, headerStyle.Render(summary))
		fmt.Fprintln(out, inspectTable(doc))
		return nil
	},
}

func inspectTable(doc *notebook.Document) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "type", "tags", "action", "outputs").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})

	for i, c := range doc.Cells() {
		tags := dimStyle.Render("-")
		if c.Tags().Len() > 0 {
			tags = strings.Join(c.Tags().List(), ",")
		}
		t.Row(strconv.Itoa(i), string(c.Type()), tags, string(display.Resolve(c)), describeOutputs(c))
	}
	return t.String()
}

// describeOutputs lists output kinds and payload sizes for code cells, and
// attachment counts for text cells.
func describeOutputs(c notebook.Cell) string {
	switch cell := c.(type) {
	case *notebook.CodeCell:
		var parts []string
		for _, o := range cell.Outputs() {
			parts = append(parts, fmt.Sprintf("%s (%s)", o.Kind, humanize.Bytes(uint64(payloadSize(o)))))
		}
		if skipped := len(cell.RawOutputs()) - len(cell.Outputs()); skipped > 0 {
			parts = append(parts, dimStyle.Render(fmt.Sprintf("%d unrecognized", skipped)))
		}
		if len(parts) == 0 {
			return dimStyle.Render("-")
		}
		return strings.Join(parts, "\n")
	case *notebook.TextCell:
		if n := len(cell.Attachments()); n > 0 {
			return fmt.Sprintf("%d attachment(s)", n)
		}
	}
	return dimStyle.Render("-")
}

func payloadSize(o notebook.Output) int {
	switch {
	case o.Figure != nil:
		return len(o.Figure.Data) + len(o.Figure.Layout) + len(o.Figure.Config)
	case o.Spec != nil:
		return len(o.Spec)
	default:
		return len(o.Text)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
