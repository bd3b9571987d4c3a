package main

import (
	"fmt"
	"os"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/mathext/prng"

	"github.com/ava-labs/hypersdk/examples/tenkvm/cmd/tenkvm/version"
)

var (
	seed     uint64
	logLevel string

	drawCfg    drawConfig
	airdropCfg airdropConfig
)

var rootCmd = &cobra.Command{
	Use:   "tenkvm-sim",
	Short: "Runs collection raffles offline over an in-memory database",
}

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 1, "MT19937 seed for the draw source")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zap log level")

	drawCmd := &cobra.Command{
		Use:   "draw",
		Short: "Draws token ids in committed batches",
		RunE:  drawFunc,
	}
	drawCmd.Flags().Uint64Var(&drawCfg.Size, "size", 10_000, "collection size")
	drawCmd.Flags().Uint64Var(&drawCfg.Count, "count", 0, "ids to draw, 0 for the whole collection")
	drawCmd.Flags().Uint64Var(&drawCfg.PerBatch, "per-batch", 3, "ids drawn per committed batch")
	drawCmd.Flags().BoolVar(&drawCfg.Abort, "abort", false, "draw one more batch and roll it back")

	airdropCmd := &cobra.Command{
		Use:   "airdrop",
		Short: "Draws airdrop winners and pages through the winner log",
		RunE:  airdropFunc,
	}
	airdropCmd.Flags().Uint32Var(&airdropCfg.Size, "size", 100, "number of entrants")
	airdropCmd.Flags().Uint32Var(&airdropCfg.MaxWinners, "max-winners", 99, "winner cap")
	airdropCmd.Flags().Uint32Var(&airdropCfg.PageSize, "page-size", 10, "winners per history page")

	rootCmd.AddCommand(
		version.NewCommand(),
		drawCmd,
		airdropCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tenkvm-sim failed %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	return cfg.Build()
}

func setup() (*simulator, *prometheus.Registry, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	registry := prometheus.NewRegistry()
	m, err := newMetrics(registry)
	if err != nil {
		return nil, nil, nil, err
	}
	src := prng.NewMT19937()
	src.Seed(seed)
	return newSimulator(log, m, src, memdb.New()), registry, log, nil
}

func drawFunc(cmd *cobra.Command, _ []string) error {
	sim, registry, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	report, err := sim.runDraws(cmd.Context(), drawCfg)
	if err != nil {
		return err
	}
	log.Info("draw finished",
		zap.Uint64("seed", seed),
		zap.Int("drawn", len(report.Drawn)),
		zap.Uint64("remaining", report.Remaining),
		zap.Uint64("aborted", report.Aborted),
	)
	if len(report.Drawn) <= 32 {
		log.Info("drawn ids", zap.Uint64s("ids", report.Drawn))
	}
	return logMetrics(log, registry)
}

func airdropFunc(cmd *cobra.Command, _ []string) error {
	sim, registry, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	pages, err := sim.runAirdrop(cmd.Context(), airdropCfg)
	if err != nil {
		return err
	}
	for i, page := range pages {
		log.Info("winners", zap.Int("page", i), zap.Uint32s("entrants", page))
	}
	return logMetrics(log, registry)
}

func logMetrics(log *zap.Logger, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fields := []zap.Field{zap.String("metric", family.GetName())}
			for _, label := range metric.GetLabel() {
				fields = append(fields, zap.String(label.GetName(), label.GetValue()))
			}
			switch {
			case metric.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", metric.GetCounter().GetValue()))
			case metric.GetGauge() != nil:
				fields = append(fields, zap.Float64("value", metric.GetGauge().GetValue()))
			}
			log.Info("metric", fields...)
		}
	}
	return nil
}
