package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var configPath string
	def := DefaultConfig()

	root := &cobra.Command{
		Use:   "layout-optimizer",
		Short: "Search letter layouts for local minima of a bigram distance cost",
		Long: `layout-optimizer places the 26 letters on a line and looks for layouts where
frequent bigrams sit close together. Every random restart is driven to a valley,
a layout no single swap can improve, and each distinct valley is stored once.`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.String("frequencies", def.Frequencies, "bigram weight file (.json or '<bigram> <weight>' lines)")
	pf.String("store", def.Store, "sqlite file of discovered valleys")
	pf.String("log-level", def.LogLevel, "debug, info, warn or error")
	pf.String("log-format", def.LogFormat, "text or json")

	search := &cobra.Command{
		Use:   "search",
		Short: "Run random-restart descents and store every new valley",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			log := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := runSearch(ctx, cfg, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trials=%d new=%d duplicates=%d store_errors=%d in %.1fs\n",
				st.Trials, st.NewValleys, st.Duplicates, st.StoreErrors, st.Elapsed.Seconds())
			return nil
		},
	}
	sf := search.Flags()
	sf.Int("trials", def.Trials, "total random restarts")
	sf.Int("workers", def.Workers, "concurrent workers")
	sf.Bool("persist-steps", def.PersistSteps, "store the descent step count with each valley")
	sf.Int("cache-size", def.CacheSize, "max valleys remembered in memory (0 disables)")
	sf.String("metrics-addr", def.MetricsAddr, "serve Prometheus metrics on this address")
	sf.String("nats-url", def.NATSURL, "publish new valleys to this NATS server")
	sf.String("nats-subject", def.NATSSubject, "NATS subject for new valleys")

	var limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "List the lowest-cost stored valleys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			store, err := OpenStore(cmd.Context(), StoreOptions{Path: cfg.Store, PersistSteps: cfg.PersistSteps})
			if err != nil {
				return err
			}
			defer store.Close()
			valleys, err := store.Best(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printTable(cmd.OutOrStdout(), valleys)
			return nil
		},
	}
	top.Flags().IntVarP(&limit, "limit", "n", 20, "number of valleys to list (0 = all)")

	cost := &cobra.Command{
		Use:   "cost <layout>",
		Short: "Print the cost of one layout and whether it is a valley",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			layout, err := ParseLayout(args[0])
			if err != nil {
				return err
			}
			table, err := LoadFrequencies(cfg.Frequencies)
			if err != nil {
				return err
			}
			model := NewCostModel(table)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "layout: %s\ncost:   %.4f\nvalley: %t\n", layout, model.Cost(&layout), IsValley(layout, model))
			costBreakdown(w, layout, table, 10)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			y, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), y)
			return nil
		},
	}

	root.AddCommand(search, top, cost, show)
	return root
}
