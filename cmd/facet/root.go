// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/facet/pkg/logging"
	"github.com/AleutianAI/facet/services/facet/config"
	"github.com/AleutianAI/facet/services/facet/sitter"
	"github.com/AleutianAI/facet/services/facet/workspace"
)

// app holds what every command shares. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	trace      bool
	color      string

	cfg    config.Config
	logger *logging.Logger
	out    *printer

	// metrics receives the OpenTelemetry instruments through the
	// Prometheus exporter.
	metrics  *prometheus.Registry
	shutdown []func(context.Context) error
}

// execute runs the facet command line with args. Setup and teardown wrap
// every subcommand, and teardown runs even when the subcommand fails.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if terr := a.teardown(ctx); terr != nil && err == nil {
		err = terr
	}
	if err != nil {
		p := a.out
		if p == nil {
			p = newPrinter(stderr, false)
		}
		fmt.Fprintln(stderr, p.failure(err.Error()))
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "facet",
		Short:         "Edit Go files through a mutable view over persistent syntax trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", config.FileName, "path to the configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config)")
	flags.BoolVar(&a.trace, "trace", false, "print OpenTelemetry spans to stderr")
	flags.StringVar(&a.color, "color", "auto", "colorize output: auto, always or never")

	root.AddCommand(
		newDumpCmd(a),
		newRenameCmd(a),
		newStatsCmd(a),
		newHistoryCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "facet",
		JSON:    cfg.Logging.JSON,
		Output:  a.stderr,
	})
	slog.SetDefault(a.logger.Slog())

	color, err := a.useColor()
	if err != nil {
		return err
	}
	a.out = newPrinter(a.stdout, color)

	a.metrics = prometheus.NewRegistry()
	shutdown, err := installMeter(a.metrics)
	if err != nil {
		return err
	}
	a.shutdown = append(a.shutdown, shutdown)

	if a.trace {
		shutdown, err := installTracer(a.stderr)
		if err != nil {
			return err
		}
		a.shutdown = append(a.shutdown, shutdown)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range a.shutdown {
		errs = append(errs, shutdown(context.WithoutCancel(ctx)))
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	a.shutdown, a.logger = nil, nil
	return errors.Join(errs...)
}

func (a *app) useColor() (bool, error) {
	switch a.color {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := a.stdout.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("invalid --color %q: want auto, always or never", a.color)
	}
}

// installMeter exports every OpenTelemetry instrument to reg.
func installMeter(reg prometheus.Registerer) (func(context.Context) error, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// installTracer sends every span to w as pretty-printed JSON.
func installTracer(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "facet"))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func (a *app) importer() *sitter.Importer {
	return sitter.NewImporter(
		sitter.WithMaxFileSize(a.cfg.Import.MaxFileSize),
		sitter.WithLogger(a.logger.Slog()),
	)
}

func (a *app) workspace(opts ...workspace.Option) *workspace.Workspace {
	base := []workspace.Option{
		workspace.WithLogger(a.logger.Slog()),
		workspace.WithImporter(a.importer()),
		workspace.WithConcurrency(a.cfg.Workspace.Concurrency),
	}
	return workspace.New(append(base, opts...)...)
}
