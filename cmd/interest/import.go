package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/judgment-interest/factory"
)

func newImportCmd() *cobra.Command {
	var ratesFile string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a rate-table document into the store",
		Long: `Validates every jurisdiction in the document, then replaces each one's
schedule in the configured store. Jurisdictions not in the document are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.Close()

			rates, closeStore, err := openStore(rt.cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			records, err := factory.NewRateTableFactory().ImportFile(cmd.Context(), rates, ratesFile)
			if err != nil {
				return err
			}

			for _, rec := range records {
				rt.logger.Info().
					Str("jurisdiction", string(rec.Jurisdiction)).
					Int("periods", rec.Periods).
					Str("import_id", rec.ID).
					Msg("imported")
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d periods\t%s\n", rec.Jurisdiction, rec.Periods, rec.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ratesFile, "rates", "", "Rate-table document (JSON or YAML)")
	_ = cmd.MarkFlagRequired("rates")
	return cmd
}
