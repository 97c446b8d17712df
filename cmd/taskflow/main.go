// Package main provides the taskflow CLI application
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/adapters/httpapi"
	"github.com/taskflow/taskflow/internal/adapters/repository"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/internal/core/timeposition"
	"github.com/taskflow/taskflow/pkg/taskflow"
)

// Version information set during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "🗂  taskflow - topics, tasks and milestones on a four-week calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(positionCmd())
	root.AddCommand(calendarCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskflow %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the background archival sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger := cfg.Logger(cmd.ErrOrStderr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			rt, err := taskflow.Open(ctx, cfg, taskflow.WithLogger(logger))
			if err != nil {
				return err
			}
			defer rt.Close()

			sweeper := rt.Sweeper()
			sweeper.Start(ctx)
			defer sweeper.Stop()
			return httpapi.Serve(ctx, cfg.Addr, httpapi.NewHandler(rt, logger), logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TASKFLOW_ADDR)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the configured storage schema",
		Long: `Create tables for the configured entity and archive stores.

SQLite and PostgreSQL schemas are created if missing; memory and Redis
need no migration. Configure with TASKFLOW_STORAGE, TASKFLOW_ARCHIVE,
TASKFLOW_SQLITE_PATH and TASKFLOW_POSTGRES_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			stores, err := repository.Open(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer stores.Close()
			if err := stores.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ schema ready (storage=%s, archive=%s)\n", cfg.StorageDriver, cfg.ArchiveDriver)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Archive stale and old completed tasks once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt, err := taskflow.Open(cmd.Context(), cfg, taskflow.WithLogger(cfg.Logger(cmd.ErrOrStderr())))
			if err != nil {
				return err
			}
			defer rt.Close()

			res := rt.Sweep(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "📦 archived %d stale, %d done\n", res.Stale, res.Done)
			for _, err := range res.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ %v\n", err)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a board snapshot encoded with TASKFLOW_CODEC/TASKFLOW_COMPRESSION",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rt, err := taskflow.Open(cmd.Context(), cfg, taskflow.WithLogger(cfg.Logger(cmd.ErrOrStderr())))
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := rt.Export()
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			_, err = w.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func positionCmd() *cobra.Command {
	var anchor string
	cmd := &cobra.Command{
		Use:   "position DATE",
		Short: "Map a date (YYYY-MM-DD) to its month/week/day position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseDate(anchor)
			if err != nil {
				return fmt.Errorf("anchor: %w", err)
			}
			d, err := parseDate(args[0])
			if err != nil {
				return err
			}
			p := timeposition.FromTime(d, a)
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (starts %s)\n", d.Format(time.DateOnly), p, timeposition.ToTime(p, a).Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "calendar anchor date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("anchor")
	return cmd
}

func calendarCmd() *cobra.Command {
	var (
		anchor      string
		month, week int
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List the seven dates of a calendar week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := parseDate(anchor)
			if err != nil {
				return fmt.Errorf("anchor: %w", err)
			}
			dates, err := timeposition.WeekDates(month, week, a)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📅 Month %d, Week %d\n", month, week)
			for i, d := range dates {
				fmt.Fprintf(cmd.OutOrStdout(), "  D%d  %s  %s\n", i+1, d.Format("Mon"), timeposition.FormatShort(d))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "calendar anchor date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&month, "month", 1, "month number")
	cmd.Flags().IntVar(&week, "week", 1, "week number (1-4)")
	_ = cmd.MarkFlagRequired("anchor")
	return cmd
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
