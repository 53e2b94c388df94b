package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/sonigraph/internal/dataset"
)

var keyStyle = lipgloss.NewStyle().Bold(true).Width(14)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List the bundled sample datasets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, k := range dataset.SampleKeys() {
			s := dataset.Samples[k]
			st := dataset.Summarize(s.Values)
			fmt.Fprintf(out, "%s%-18s %3d points  %8.2f..%-8.2f %s\n",
				keyStyle.Render(k), s.Name, st.Count, st.Min, st.Max, s.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}
