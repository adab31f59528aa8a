// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package view

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeRebuilt = "rebuilt"
	outcomeReused  = "reused"
)

// Prometheus metrics for the export protocol.
var (
	exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facet_view_exports_total",
		Help: "Node exports by outcome (rebuilt or reused)",
	}, []string{"outcome"})

	materialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facet_view_materialized_total",
		Help: "View nodes wrapped around persistent nodes on first read",
	})
)
