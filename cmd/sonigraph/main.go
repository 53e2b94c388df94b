package main

import (
	"log"

	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "sonigraph",
	Short: "Turn time-series data into music",
	Long: `sonigraph maps numeric series onto a musical scale and plays them back.

Run "sonigraph serve" for the streaming server, or render, preview and notes
to work with a dataset offline.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging with microsecond timestamps")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
