package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	compYear   int
	compCNPJ   string
	compMonths []int
	compOutput outputFlags
)

var compositionCmd = &cobra.Command{
	Use:   "composition",
	Short: "Composition of a fund's portfolio across a year",
	Long:  "Fetches the monthly archives of a year and prints the fund's holdings by category as a percentage of each month's total.",
	Example: `  fundcomp composition --year 2024 --cnpj 11.111.111/0001-11
  fundcomp composition --year 2023 --cnpj 11.111.111/0001-11 --format xlsx --out comp.xlsx`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := initPipeline(cfg, "composition")
		if err != nil {
			return err
		}

		opts := compOutput.options(cmd)
		opts.Months = compMonths

		res, err := p.RunYear(cmd.Context(), compYear, compCNPJ, opts)
		if err != nil {
			return err
		}
		zap.L().Info("composition complete",
			zap.String("run_id", res.RunID),
			zap.Int("rows", len(res.Matrix.Rows)),
			zap.Int("diagnostics", len(res.Diagnostics)),
		)
		return compOutput.write(cmd.OutOrStdout(), res)
	},
}

func init() {
	compositionCmd.Flags().IntVar(&compYear, "year", time.Now().Year(), "disclosure year")
	compositionCmd.Flags().StringVar(&compCNPJ, "cnpj", "", "fund CNPJ as published, e.g. 11.111.111/0001-11")
	compositionCmd.Flags().IntSliceVar(&compMonths, "month", nil, "restrict to these months (1-12)")
	_ = compositionCmd.MarkFlagRequired("cnpj")
	compOutput.register(compositionCmd)
	rootCmd.AddCommand(compositionCmd)
}
