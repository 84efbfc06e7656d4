package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gridcal/pricefit/config"
	"github.com/gridcal/pricefit/core/calib"
	"github.com/gridcal/pricefit/core/events"
	"github.com/gridcal/pricefit/core/metrics"
	"github.com/gridcal/pricefit/core/model"
	"github.com/gridcal/pricefit/infra/logger"
	"github.com/gridcal/pricefit/internal/eventbus"
	"github.com/gridcal/pricefit/pkg/dataset"
	"github.com/gridcal/pricefit/pkg/export"
)

var datasetPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calibrate all groups of a dataset and export the results",
	RunE:  runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&datasetPath, "dataset", "d", "dataset.json", "dataset file")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetGlobalLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log := logger.New("run")

	groups, err := dataset.Load(datasetPath, dataset.Defaults{
		Producer: cfg.Hypothesis.Producer.Pair(),
		Consumer: cfg.Hypothesis.Consumer.Pair(),
	})
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	sink, err := metrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if cfg.Metrics.PromAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PromAddr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe(len(groups) + 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub {
			if fe, ok := e.(events.FitEvent); ok {
				log.Debugf("fit %s: %s in %s", fe.Key, fe.Status, fe.Duration)
			}
		}
	}()

	orch := calib.NewOrchestrator(cfg.Solver, log, sink, bus)
	manifest := orch.Run(ctx, groups)

	bus.Unsubscribe(sub)
	<-done

	if err := writeOutputs(cfg.Export, manifest); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.Infof("results written to %s", cfg.Export.Dir)
	return nil
}

func writeOutputs(cfg config.ExportConfig, m model.Manifest) error {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return err
	}
	if cfg.Wants("json") {
		if err := writeFile(filepath.Join(cfg.Dir, "manifest.json"), func(f *os.File) error {
			return export.WriteJSON(f, m)
		}); err != nil {
			return err
		}
	}
	if cfg.Wants("csv") {
		if err := writeFile(filepath.Join(cfg.Dir, "results.csv"), func(f *os.File) error {
			return export.WriteCSV(f, m.Results())
		}); err != nil {
			return err
		}
	}
	if cfg.Wants("table") {
		if err := writeFile(filepath.Join(cfg.Dir, "thresholds.csv"), func(f *os.File) error {
			return export.WriteThresholdTable(f, m.Results())
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
