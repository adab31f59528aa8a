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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/facet/services/facet/green"
)

func newStatsCmd(a *app) *cobra.Command {
	var metrics bool
	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Load Go files and report tree statistics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws := a.workspace()
			loadErr := ws.Load(ctx, args...)
			if ctx.Err() != nil {
				return ctx.Err()
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("FILE", "NODES", "DECLS", "FUNCS", "ERRORS")
			for _, path := range ws.Paths() {
				doc, _ := ws.Get(path)
				tree, err := doc.Tree(ctx)
				if err != nil {
					return err
				}
				root := doc.Root()
				errs := len(green.Find(tree, func(n *green.Node) bool {
					return n.Kind() == green.KindError
				}))
				t.Row(path,
					strconv.Itoa(green.Count(tree)),
					strconv.Itoa(root.Decls().Len()),
					strconv.Itoa(root.Funcs().Len()),
					strconv.Itoa(errs))
			}
			if ws.Len() > 0 {
				a.out.println(t.String())
			}

			if metrics {
				lines, err := gatherFacetMetrics(prometheus.Gatherers{prometheus.DefaultGatherer, a.metrics})
				if err != nil {
					return err
				}
				a.out.println(a.out.title("Metrics"))
				for _, l := range lines {
					a.out.println("  " + l)
				}
			}

			if loadErr != nil {
				for _, err := range unjoin(loadErr) {
					a.out.println(a.out.failure(err.Error()))
				}
				return fmt.Errorf("%d of %d file(s) failed to load", len(args)-ws.Len(), len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&metrics, "metrics", false, "also print the facet_* counters")
	return cmd
}

// gatherFacetMetrics renders every facet_* counter as "name{labels} value",
// sorted.
func gatherFacetMetrics(g prometheus.Gatherer) ([]string, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	var out []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "facet_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			out = append(out, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
