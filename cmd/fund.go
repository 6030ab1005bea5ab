package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/fundcomp/internal/cda"
	"github.com/sells-group/fundcomp/internal/pipeline"
)

var (
	fundPeriod string
	fundCNPJ   string
)

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Show a fund's details for one month",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := cda.ParsePeriod(fundPeriod)
		if err != nil {
			return err
		}
		p, err := initPipeline(cfg, "composition")
		if err != nil {
			return err
		}

		res, err := p.RunMonth(cmd.Context(), period, fundCNPJ, pipeline.Options{LowMemory: cfg.Pipeline.LowMemory})
		if err != nil {
			return err
		}
		return printFund(cmd.OutOrStdout(), res)
	},
}

func printFund(out io.Writer, res *pipeline.YearResult) error {
	if res.Fund == nil {
		_, _ = fmt.Fprintf(out, "No data for %s.\n", res.FundID)
		for _, d := range res.Diagnostics {
			_, _ = fmt.Fprintf(out, "  %s\n", d)
		}
		return nil
	}

	f := res.Fund
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "CNPJ:\t%s\n", f.ID)
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", f.Name)
	_, _ = fmt.Fprintf(w, "Type:\t%s\n", f.Type)
	_, _ = fmt.Fprintf(w, "Competency:\t%s\n", f.Competency.Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Net assets:\t%s\n", strconv.FormatFloat(f.NetAssetValue, 'f', 2, 64))
	_, _ = fmt.Fprintf(w, "Allocated:\t%s%%\n", strconv.FormatFloat(f.AllocatedPct, 'f', 1, 64))
	return w.Flush()
}

func init() {
	fundCmd.Flags().StringVar(&fundPeriod, "period", "", "period as YYYY-MM")
	fundCmd.Flags().StringVar(&fundCNPJ, "cnpj", "", "fund CNPJ as published")
	_ = fundCmd.MarkFlagRequired("period")
	_ = fundCmd.MarkFlagRequired("cnpj")
	rootCmd.AddCommand(fundCmd)
}
