// Package main is the railplan command-line tool.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "railplan",
		Short:        "Plan rail connections across generated terrain",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// commonFlags are shared by every command that loads a config.
type commonFlags struct {
	configPath string
	seed       int64
	seedSet    bool // --seed given, even as 0
	strategy   string
	workers    int
	debug      bool
	logFile    string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Config file (default: ./railplan.yaml or XDG config dir)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "World seed override")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Assembly strategy: greedy or buckets")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent height probes")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
}

func planCmd() *cobra.Command {
	var (
		common commonFlags
		opts   planOptions
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one connection between two station exits",
		Long: `Plan routes a connection from --from to --to inside the cost window
of the region given by --region-x/--region-z. Exits are x,y,z block
positions; directions are one of n, s, e, w. The result is written as a
compressed route bundle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			common.seedSet = cmd.Flags().Changed("seed")
			return runPlan(cmd.Context(), common, opts)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVar(&opts.from, "from", "", "Start exit as x,y,z (required)")
	cmd.Flags().StringVar(&opts.fromDir, "from-dir", "s", "Direction a train leaves the start exit")
	cmd.Flags().StringVar(&opts.to, "to", "", "End exit as x,y,z (required)")
	cmd.Flags().StringVar(&opts.toDir, "to-dir", "s", "Direction a train leaves the end exit")
	cmd.Flags().StringVar(&opts.axis, "axis", "", "Connection axis: e or s (default: from the larger exit offset)")
	cmd.Flags().IntVar(&opts.regionX, "region-x", 0, "Region X the cost window is centred on")
	cmd.Flags().IntVar(&opts.regionZ, "region-z", 0, "Region Z the cost window is centred on")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "route.bundle", "Output bundle path")
	cmd.Flags().BoolVar(&opts.roadbed, "roadbed", false, "Print the roadbed plan summary")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}

func inspectCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "inspect <bundle>",
		Short: "Print the contents of a route bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every segment")
	return cmd
}

func configCmd() *cobra.Command {
	var (
		common  commonFlags
		save    string
		install bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			common.seedSet = cmd.Flags().Changed("seed")
			return runConfig(common, save, install)
		},
	}

	common.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Write the effective config to this path")
	cmd.Flags().BoolVar(&install, "install", false, "Write the effective config to the user config directory")
	return cmd
}
