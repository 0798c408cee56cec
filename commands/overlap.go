package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/core/restore"
	"github.com/penwyp/go-trend-sift/internal/core/stitch"
	"github.com/penwyp/go-trend-sift/internal/data/parser"
	"github.com/penwyp/go-trend-sift/internal/util"
)

var overlapJSON bool

var overlapCmd = &cobra.Command{
	Use:   "overlap FILE LEFT_ID RIGHT_ID",
	Short: "Inspect the overlap between two requests of a fragment file",
	Long: `Restores two fragments of one fragment file and shows the labels they share,
the maxima on both sides and the scale the stitcher would apply to RIGHT_ID.

Example:
  go-trend-sift overlap fragments/flu/US.jsonl 17 18`,
	Args: cobra.ExactArgs(3),
	RunE: runOverlap,
}

func init() {
	rootCmd.AddCommand(overlapCmd)
	overlapCmd.Flags().BoolVar(&overlapJSON, "json", false, "Print the report as JSON")
}

func runOverlap(cmd *cobra.Command, args []string) error {
	leftID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q: %w", args[1], err)
	}
	rightID, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q: %w", args[2], err)
	}

	content, err := parser.NewParser(1).ParseFile(expandPath(args[0]))
	if err != nil {
		return err
	}

	left, err := findFragment(content.Fragments, leftID)
	if err != nil {
		return err
	}
	right, err := findFragment(content.Fragments, rightID)
	if err != nil {
		return err
	}

	report := stitch.InspectOverlap(left.Fragment, right.Fragment)
	if overlapJSON {
		b, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return err
	}
	return printOverlap(cmd.OutOrStdout(), left, right, report)
}

// findFragment restores the fragment with the given request id.
func findFragment(raws []model.RawFragment, id int64) (model.LabeledFragment, error) {
	for _, raw := range raws {
		if raw.RequestID != id {
			continue
		}
		lf, ok, err := restore.RestoreFragment(raw)
		if err != nil {
			return lf, fmt.Errorf("request %d: %w", id, err)
		}
		if !ok {
			return lf, fmt.Errorf("request %d has no samples", id)
		}
		return lf, nil
	}
	return model.LabeledFragment{}, fmt.Errorf("request %d not found", id)
}

func printOverlap(w io.Writer, left, right model.LabeledFragment, r stitch.OverlapReport) error {
	tp := util.GetTimeProvider()
	describe := func(side string, lf model.LabeledFragment) {
		fmt.Fprintf(w, "%-6s request %d  %s  %s .. %s  (%d samples)\n",
			side, lf.RequestID, util.FormatWindow(lf.Window),
			tp.Format(lf.Fragment.First(), timeLayout), tp.Format(lf.Fragment.Last(), timeLayout), lf.Fragment.Len())
	}
	describe("Left", left)
	describe("Right", right)
	fmt.Fprintln(w)

	if len(r.Labels) == 0 {
		_, err := fmt.Fprintln(w, "No shared labels: the stitcher reports no_overlap for this pair.")
		return err
	}

	fmt.Fprintf(w, "%-16s  %8s  %8s  %8s\n", "Label", "Left", "Right", "Scaled")
	for i, l := range r.Labels {
		scaled := "-"
		if r.Usable {
			scaled = util.FormatValue(r.Scaled[i])
		}
		fmt.Fprintf(w, "%-16s  %8s  %8s  %8s\n", tp.Format(l, timeLayout),
			util.FormatValue(r.Left[i]), util.FormatValue(r.Right[i]), scaled)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Shared labels: %d   Left max: %s   Right max: %s\n",
		len(r.Labels), util.FormatValue(r.LeftMax), util.FormatValue(r.RightMax))

	if !r.Usable {
		_, err := fmt.Fprintln(w, "Unusable overlap: a zero maximum gives no scale (zero_overlap_max).")
		return err
	}
	_, err := fmt.Fprintf(w, "Scale applied to right: %.6g\n", r.Scale)
	return err
}

const timeLayout = "2006-01-02 15:04"
