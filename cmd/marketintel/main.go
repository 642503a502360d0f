package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammad-safakhou/marketintel/internal/pipeline"
	"github.com/mohammad-safakhou/marketintel/internal/server"
	"github.com/mohammad-safakhou/marketintel/internal/service"
	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/repository"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	var cfgPath string
	var root = &cobra.Command{Use: "marketintel", SilenceUsage: true}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.yaml)")

	root.AddCommand(serveCMD(&cfgPath), toolsCMD(&cfgPath), analyzeCMD(&cfgPath))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCMD(cfgPath *string) *cobra.Command {
	var addr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with tool, analyze and chat routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			reports, err := repository.NewReportRepository(ctx, a.cfg.Storage)
			if err != nil {
				return err
			}
			svc := service.New(a.orchestrator(), reports, a.log)
			e := server.New(server.Options{Registry: a.registry, Service: svc, Metrics: a.metrics, Log: a.log, Timeout: a.cfg.Server.Timeout})
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			return server.Run(ctx, e, addr, a.log)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return serve
}

func toolsCMD(cfgPath *string) *cobra.Command {
	var addr string
	var tools = &cobra.Command{
		Use:   "tools",
		Short: "Run only the tool server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			e := server.New(server.Options{Registry: a.registry, Metrics: a.metrics, Log: a.log, Timeout: a.cfg.Server.Timeout})
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			return server.Run(ctx, e, addr, a.log)
		},
	}
	tools.Flags().StringVar(&addr, "addr", "", "listen address (default server.address)")
	return tools
}

func analyzeCMD(cfgPath *string) *cobra.Command {
	var q models.Query
	var format string
	var analyze = &cobra.Command{
		Use:   "analyze",
		Short: "Run the pipeline once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported format %q (json or yaml)", format)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			report := a.orchestrator().Run(ctx, q, func(state pipeline.State, percent int) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", percent, state)
			})
			return printReport(cmd.OutOrStdout(), report, format)
		},
	}
	analyze.Flags().StringVar(&q.Industry, "industry", "NBFC", "industry to analyze")
	analyze.Flags().StringVar(&q.FromDate, "from", "", "start of the date range")
	analyze.Flags().StringVar(&q.ToDate, "to", "", "end of the date range")
	analyze.Flags().StringVar(&q.Focus, "focus", "", "optional focus")
	analyze.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	_ = analyze.MarkFlagRequired("from")
	_ = analyze.MarkFlagRequired("to")
	return analyze
}

func printReport(w io.Writer, report models.Report, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(report)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
