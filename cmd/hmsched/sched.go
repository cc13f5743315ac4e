package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LeeOHzzZ/HMCOS/internal/arena"
	"github.com/LeeOHzzZ/HMCOS/internal/graph"
	"github.com/LeeOHzzZ/HMCOS/internal/herrors"
	"github.com/LeeOHzzZ/HMCOS/internal/lifetime"
	"github.com/LeeOHzzZ/HMCOS/internal/loader"
	"github.com/LeeOHzzZ/HMCOS/internal/obslog"
	"github.com/LeeOHzzZ/HMCOS/internal/sched"
	"github.com/LeeOHzzZ/HMCOS/internal/schedconfig"
	"github.com/LeeOHzzZ/HMCOS/internal/viz"
)

func newSchedCmd() *cobra.Command {
	var configPath string
	var enableViz bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "sched <dag.json> <outdir> [budget_bytes]",
		Short: "Schedule a JSON DAG and write its op order",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			cfg, err := schedconfig.Load(configPath, v)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("viz") {
				cfg.EnableViz = enableViz
			}
			cfg.OutDir = args[1]
			if len(args) == 3 {
				budget, err := strconv.ParseUint(args[2], 10, 64)
				if err != nil {
					return herrors.Wrap(herrors.KindSchema, err, "parsing budget_bytes %q", args[2])
				}
				cfg.Budget = budget
			}

			return runSched(args[0], cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "optional YAML/JSON config file")
	cmd.Flags().BoolVar(&enableViz, "viz", false, "render DOT graph and arena timeline alongside the schedule")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")

	return cmd
}

func runSched(dagPath string, cfg schedconfig.Config) error {
	log := obslog.New(cfg.LogLevel)

	g, err := loader.Load(dagPath, log)
	if err != nil {
		return err
	}

	overlapEligible := cfg.OverlapEligibleSet()
	order, report, err := sched.HierarchicalSchedule(g, cfg.Budget, overlapEligible, log)
	if err != nil {
		return err
	}
	for _, overage := range report.Overages {
		log.Warnf("budget overage in group %v: min peak %d exceeds budget %d",
			overage.GroupOps, overage.MinPeak, overage.Budget)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return herrors.Wrap(herrors.KindSchema, err, "creating output directory %q", cfg.OutDir)
	}
	outPath := filepath.Join(cfg.OutDir, g.Name+".json")
	if err := writeSchedule(outPath, g, order); err != nil {
		return err
	}

	scheduledPeak := lifetime.EstimatePeak(order, g, overlapEligible)
	rpo := sched.ReversePostOrder(g)
	rpoPeak := lifetime.EstimatePeak(rpo, g, overlapEligible)
	log.Infof("hmsched peak: %d byte", scheduledPeak)
	log.Infof("rpo peak: %d byte", rpoPeak)

	scheduledStat := lifetime.ComputeLifetime(order, g)
	for _, blk := range scheduledStat.SortedBlocks(lifetime.CmpByGenKill) {
		log.Debugf("value %d live [%d, %d) size %d byte", blk.Value, blk.Gen, blk.Kill, blk.Size)
	}

	if cfg.EnableViz {
		hmcosArena := arena.Simulate(scheduledStat)
		rpoArena := arena.Simulate(lifetime.ComputeLifetime(rpo, g))
		log.Infof("hmsched arena size: %d byte", hmcosArena)
		log.Infof("rpo arena size: %d byte", rpoArena)

		if err := viz.RenderDOT(g, cfg.OutDir, "png"); err != nil {
			log.Warnf("DOT render skipped: %v", err)
		}
	}

	return nil
}

func writeSchedule(path string, g *graph.Graph, order []graph.OpID) error {
	names := make([]string, len(order))
	for i, id := range order {
		names[i] = g.Op(id).Name
	}
	data, err := json.MarshalIndent(names, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling schedule: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return herrors.Wrap(herrors.KindSchema, err, "writing schedule file %q", path)
	}
	return nil
}
