// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command facet edits Go files through a mutable view over persistent
// syntax trees.
//
// Usage:
//
//	facet dump calc.go
//	facet rename --from add --to sum calc.go
//	facet stats ./pkg/*.go
//	facet history calc.go
//	facet watch ./pkg
//
// Global flags:
//
//	--config     path to facet.yaml (default ./facet.yaml)
//	--log-level  debug, info, warn or error
//	--trace      print OpenTelemetry spans to stderr
//	--color      auto, always or never
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
