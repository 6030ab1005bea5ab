package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fundcomp/internal/export"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

// outputFlags are shared by the commands that print a pipeline result.
type outputFlags struct {
	format    string
	out       string
	lowMemory bool
	category  []string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.format, "format", string(export.FormatTable), "output format: table, csv, json, yaml or xlsx")
	cmd.Flags().StringVar(&o.out, "out", "", "write to this file instead of stdout (required for xlsx)")
	cmd.Flags().BoolVar(&o.lowMemory, "low-memory", false, "filter to the fund while reading each archive (default from config)")
	cmd.Flags().StringSliceVar(&o.category, "category", nil, "keep only these holding categories")
}

func (o *outputFlags) options(cmd *cobra.Command) pipeline.Options {
	lowMemory := cfg.Pipeline.LowMemory
	if cmd.Flags().Changed("low-memory") {
		lowMemory = o.lowMemory
	}
	return pipeline.Options{LowMemory: lowMemory, Categories: o.category}
}

// write renders res to --out or to stdout.
func (o *outputFlags) write(stdout io.Writer, res *pipeline.YearResult) error {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	if o.out == "" {
		if format == export.FormatXLSX {
			return eris.New("xlsx output requires --out")
		}
		return export.Write(stdout, res, format)
	}

	f, err := os.Create(o.out)
	if err != nil {
		return eris.Wrap(err, "create output file")
	}
	if err := export.Write(f, res, format); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "close output file")
}
