package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"tripquest/analytics"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "tripquest-server",
		Short: "Gamified travel progress server for the tourism site",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to JSON config file (env vars override)")

	root.AddCommand(serveCmd(), exportCmd(), importCmd(), resetCmd(), rollupCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildApp(ctx context.Context) (*App, error) {
	return BuildApp(ctx, configPath)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := buildApp(ctx)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}

			app.Engine.Initialize(ctx)
			defer app.Engine.Close(context.Background())

			cfg := app.Config
			slog.Info("starting tripquest server",
				"environment", cfg.Environment,
				"address", cfg.Server.Address,
				"storage_adapter", cfg.Storage.Adapter)

			errCh := make(chan error, 1)
			go func() {
				if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-quit:
			}

			slog.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := app.Server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the progress snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			app.Engine.Initialize(ctx)
			defer app.Engine.Close(context.Background())

			data, err := app.Engine.ExportSnapshot()
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			return os.WriteFile(out, data, 0o600)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json>",
		Short: "Replace progress with a previously exported snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			app.Engine.Initialize(ctx)
			defer app.Engine.Close(context.Background())

			if err := app.Engine.ImportSnapshot(ctx, data); err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported snapshot, %d points\n", app.Engine.Record().Points)
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all stored progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "This deletes all progress. Type 'yes' to continue: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, _ := reader.ReadString('\n')
				if strings.TrimSpace(line) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			app.Engine.Initialize(ctx)
			defer app.Engine.Close(context.Background())

			app.Engine.Reset(ctx)
			fmt.Fprintln(cmd.OutOrStdout(), "progress reset")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func rollupCmd() *cobra.Command {
	var period, format string
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Aggregate points history into period buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p := analytics.Period(period)
			if p != analytics.PeriodDaily && p != analytics.PeriodWeekly {
				return fmt.Errorf("period must be daily or weekly, got %q", period)
			}

			app, err := buildApp(ctx)
			if err != nil {
				return err
			}
			app.Engine.Initialize(ctx)
			defer app.Engine.Close(context.Background())

			buckets := analytics.Rollup(app.Engine.Record().PointsHistory, p)
			var exporter analytics.Exporter
			switch format {
			case "csv":
				exporter = analytics.NewCSVExporter(cmd.OutOrStdout())
			case "json":
				exporter = analytics.NewJSONExporter(cmd.OutOrStdout())
			default:
				return fmt.Errorf("format must be json or csv, got %q", format)
			}
			return exporter.Export(ctx, buckets)
		},
	}
	cmd.Flags().StringVar(&period, "period", "daily", "bucket width: daily or weekly")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	return cmd
}
