package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridcal/pricefit/config"
	"github.com/gridcal/pricefit/infra/logger"
	"github.com/gridcal/pricefit/pkg/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and dataset without fitting",
	RunE:  validateInputs,
}

func init() {
	validateCmd.Flags().StringVarP(&datasetPath, "dataset", "d", "dataset.json", "dataset file")
	rootCmd.AddCommand(validateCmd)
}

func validateInputs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("validate")

	groups, err := dataset.Load(datasetPath, dataset.Defaults{
		Producer: cfg.Hypothesis.Producer.Pair(),
		Consumer: cfg.Hypothesis.Consumer.Pair(),
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	bad := 0
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			log.Warnf("%v", err)
			bad++
		}
	}
	log.Infof("%d groups, %d with malformed input", len(groups), bad)
	if bad > 0 {
		return fmt.Errorf("%d of %d groups have malformed input", bad, len(groups))
	}
	return nil
}
