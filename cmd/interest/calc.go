package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/warp/judgment-interest/engine"
	"github.com/warp/judgment-interest/factory"
)

func newCalcCmd() *cobra.Command {
	var (
		ratesFile   string
		requestFile string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute interest for a request document",
		Long: `Reads a calculation request (JSON or YAML) and prints the itemized result.
Rates come from --rates when given, otherwise from the configured store.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.Close()

			req, err := factory.ParseRequestFile(requestFile)
			if err != nil {
				return err
			}

			var table *engine.RateTable
			if ratesFile != "" {
				table, err = factory.NewRateTableFactory().ParseFile(ratesFile)
			} else {
				table, err = loadStoredTable(cmd, rt)
			}
			if err != nil {
				return err
			}

			result, err := engine.NewCalculator(table).Calculate(req)
			if err != nil {
				return err
			}
			rt.logger.Debug().
				Str("jurisdiction", string(req.Jurisdiction)).
				Int("rows", len(result.Details)).
				Msg("calculated")

			return writeResult(cmd.OutOrStdout(), factory.NewResultJSON(result), output)
		},
	}

	cmd.Flags().StringVar(&ratesFile, "rates", "", "Rate-table document (JSON or YAML)")
	cmd.Flags().StringVar(&requestFile, "request", "", "Calculation request document (JSON or YAML)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func loadStoredTable(cmd *cobra.Command, rt *app) (*engine.RateTable, error) {
	rates, closeStore, err := openStore(rt.cfg.Store)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	return rates.LoadTable(cmd.Context())
}

func writeResult(w io.Writer, result factory.ResultJSON, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
