package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/sonigraph/internal/playback"
)

var notesFlags soundFlags

var notesCmd = &cobra.Command{
	Use:   "notes <sample|file>",
	Short: "Print the note each data point maps to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		m, err := notesFlags.mapping()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d points, %d notes across %s\n", ds.Name, ds.Len(), m.TotalNotes(), m.Scale.Name)
		for _, ev := range playback.Sequence(ds.Values, m) {
			fmt.Fprintf(out, "%4d  %12.4f  %.3f  %-4s %7.2f Hz\n",
				ev.Index, ev.Value, ev.Normalized, ev.Note, ev.Note.Frequency())
		}
		return nil
	},
}

func init() {
	notesFlags.register(notesCmd)
	rootCmd.AddCommand(notesCmd)
}
