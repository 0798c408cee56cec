package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/core/restore"
	"github.com/penwyp/go-trend-sift/internal/util"
)

var gridsCmd = &cobra.Command{
	Use:   "grids",
	Short: "List the recognized sampling grids",
	Long: `Lists every sampling grid the restorer recognizes, in lookup order.

A fragment is restored with the first grid matching its window length and
sample count. Fragments matching no grid are rejected and reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printGrids(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(gridsCmd)
}

func printGrids(w io.Writer) error {
	headers := []string{"Grid", "Window", "Samples", "Step", "First At", "Resolution"}
	rows := make([][]string, 0, len(restore.Grids))
	for _, g := range restore.Grids {
		window := util.FormatWindow(g.Window)
		samples := fmt.Sprintf("%d", g.Count)
		if g.Daily {
			window = "> " + window
			samples = "days + 1"
		}
		resolution := model.ResolutionFine
		if g.Daily {
			resolution = model.ResolutionCoarse
		}
		rows = append(rows, []string{
			g.Name,
			window,
			samples,
			util.FormatWindow(g.Step),
			"+" + formatOffset(g.Offset),
			resolution,
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = util.DisplayWidth(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if cw := util.DisplayWidth(c); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	line := func(cells []string) error {
		padded := make([]string, len(cells))
		for i, c := range cells {
			padded[i] = util.PadString(c, widths[i], true)
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(padded, "  "), " "))
		return err
	}

	if err := line(headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := line(r); err != nil {
			return err
		}
	}
	return nil
}

func formatOffset(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	return util.FormatWindow(d)
}
