package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/fundcomp/internal/cda"
)

var (
	monthPeriod string
	monthCNPJ   string
	monthOutput outputFlags
)

var monthCmd = &cobra.Command{
	Use:   "month",
	Short: "Composition of a fund's portfolio in one month",
	RunE: func(cmd *cobra.Command, args []string) error {
		period, err := cda.ParsePeriod(monthPeriod)
		if err != nil {
			return err
		}
		p, err := initPipeline(cfg, "composition")
		if err != nil {
			return err
		}

		res, err := p.RunMonth(cmd.Context(), period, monthCNPJ, monthOutput.options(cmd))
		if err != nil {
			return err
		}
		return monthOutput.write(cmd.OutOrStdout(), res)
	},
}

func init() {
	monthCmd.Flags().StringVar(&monthPeriod, "period", "", "period as YYYY-MM")
	monthCmd.Flags().StringVar(&monthCNPJ, "cnpj", "", "fund CNPJ as published")
	_ = monthCmd.MarkFlagRequired("period")
	_ = monthCmd.MarkFlagRequired("cnpj")
	monthOutput.register(monthCmd)
	rootCmd.AddCommand(monthCmd)
}
