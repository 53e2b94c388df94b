package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
	"github.com/spf13/cobra"

	"github.com/satindergrewal/sonigraph/internal/dataset"
	"github.com/satindergrewal/sonigraph/internal/export"
)

var (
	renderFlags  soundFlags
	renderOut    string
	renderFormat string
	renderAll    bool
	renderJobs   int
)

var renderCmd = &cobra.Command{
	Use:   "render [sample|file]",
	Short: "Render a dataset to a WAV or MIDI file",
	Long: `Render a dataset to a WAV or MIDI file.

With --all every bundled sample is rendered into the --out directory.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if renderAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ext, err := formatExt(renderFormat)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if !renderAll {
			ds, err := loadDataset(args[0])
			if err != nil {
				return err
			}
			path := renderOut
			if path == "" {
				path = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])) + ext
			}
			res, err := renderFile(ds, path, ext)
			if err != nil {
				return err
			}
			report(out, path, res)
			return nil
		}

		dir := renderOut
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		var (
			mu       sync.Mutex
			firstErr error
		)
		swg := sizedwaitgroup.New(renderJobs)
		for _, key := range dataset.SampleKeys() {
			swg.Add()
			go func(key string) {
				defer swg.Done()
				ds, err := dataset.LoadSample(key)
				if err == nil {
					path := filepath.Join(dir, key+ext)
					var res export.Result
					res, err = renderFile(ds, path, ext)
					if err == nil {
						mu.Lock()
						report(out, path, res)
						mu.Unlock()
					}
				}
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("render %s: %w", key, err)
					}
					mu.Unlock()
				}
			}(key)
		}
		swg.Wait()
		return firstErr
	},
}

func init() {
	renderFlags.register(renderCmd)
	fl := renderCmd.Flags()
	fl.StringVarP(&renderOut, "out", "o", "", "output file, or directory with --all")
	fl.StringVarP(&renderFormat, "format", "f", "wav", "output format: wav or midi")
	fl.BoolVar(&renderAll, "all", false, "render every bundled sample")
	fl.IntVarP(&renderJobs, "jobs", "j", 4, "samples rendered at once with --all")
	rootCmd.AddCommand(renderCmd)
}

func formatExt(format string) (string, error) {
	switch strings.ToLower(format) {
	case "wav":
		return ".wav", nil
	case "midi", "mid":
		return ".mid", nil
	}
	return "", fmt.Errorf("unknown format %q (want wav or midi)", format)
}

func renderFile(ds *dataset.Dataset, path, ext string) (export.Result, error) {
	opts, err := renderFlags.options(ds.Name)
	if err != nil {
		return export.Result{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return export.Result{}, err
	}
	defer f.Close()

	var res export.Result
	if ext == ".wav" {
		res, err = export.WriteWAV(f, ds.Values, opts)
	} else {
		res, err = export.WriteMIDI(f, ds.Values, opts)
	}
	if err != nil {
		os.Remove(path)
		return export.Result{}, err
	}
	return res, f.Close()
}

func report(w io.Writer, path string, res export.Result) {
	fmt.Fprintf(w, "Wrote %s: %s notes, %s, %s\n",
		path,
		humanize.Comma(int64(res.Notes)),
		durafmt.Parse(res.Duration).LimitFirstN(2).String(),
		humanize.Bytes(uint64(res.Bytes)))
}
