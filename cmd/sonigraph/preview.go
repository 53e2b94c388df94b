package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/sonigraph/internal/preview"
)

var (
	previewFlags    soundFlags
	previewPosition int
	previewHeight   int
	previewLive     bool
	previewSpark    bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <sample|file>",
	Short: "Draw the visible window of a dataset in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		m, err := previewFlags.mapping()
		if err != nil {
			return err
		}
		frame := preview.Build(ds.Name, ds.Values, m, previewPosition, previewLive)
		if previewSpark {
			fmt.Fprintln(cmd.OutOrStdout(), preview.Sparkline(frame))
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), preview.Render(frame, previewHeight))
		return nil
	},
}

func init() {
	previewFlags.register(previewCmd)
	fl := previewCmd.Flags()
	fl.IntVarP(&previewPosition, "position", "p", 0, "playback position to mark")
	fl.IntVar(&previewHeight, "height", preview.DefaultHeight, "chart rows")
	fl.BoolVar(&previewLive, "live", false, "show the newest points, as live mode does")
	fl.BoolVar(&previewSpark, "spark", false, "single-line sparkline")
	rootCmd.AddCommand(previewCmd)
}
