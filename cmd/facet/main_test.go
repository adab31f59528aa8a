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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/facet/services/facet/sitter"
)

const addSrc = "package calc\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n"

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// run executes the command line against a config in dir and returns
// stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config", filepath.Join(dir, "facet.yaml"), "--color", "never"}, args...)
	err := execute(context.Background(), full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestDumpDiff(t *testing.T) {
	imp := sitter.NewImporter()
	ctx := context.Background()
	before, err := imp.ImportString(ctx, "calc.go", addSrc)
	require.NoError(t, err)
	after, err := imp.ImportString(ctx, "calc.go", strings.Replace(addSrc, "add", "sum", 1))
	require.NoError(t, err)

	t.Run("identical", func(t *testing.T) {
		fd, err := dumpDiff("calc.go", before, before, 2)
		require.NoError(t, err)
		assert.Nil(t, fd)
	})

	t.Run("renamed", func(t *testing.T) {
		fd, err := dumpDiff("calc.go", before, after, 2)
		require.NoError(t, err)
		require.NotNil(t, fd)
		assert.Equal(t, "a/calc.go", fd.OrigName)
		assert.Equal(t, "b/calc.go", fd.NewName)
		require.Len(t, fd.Hunks, 1)
		st := fd.Stat()
		assert.EqualValues(t, 1, st.Changed)
		assert.EqualValues(t, 0, st.Added)
		assert.EqualValues(t, 0, st.Deleted)

		var buf bytes.Buffer
		printFileDiff(newPrinter(&buf, false), fd)
		assert.Regexp(t, `(?m)^-\s+ident "add"$`, buf.String())
		assert.Regexp(t, `(?m)^\+\s+ident "sum"$`, buf.String())
		assert.Contains(t, buf.String(), "1 hunk(s): 0 added, 1 changed, 0 deleted")
	})
}

func TestExecute_Dump(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.go", addSrc)

	out, _, err := run(t, dir, "dump", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "file\n"), out)
	assert.Contains(t, out, `ident "add"`)

	out, _, err = run(t, dir, "dump", "--json", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"), out)
}

func TestExecute_Rename(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.go", addSrc)

	out, _, err := run(t, dir, "rename", "--from", "a", "--to", "x", path)
	require.NoError(t, err)
	assert.Contains(t, out, "renamed 2 identifier(s) a → x")
	assert.Contains(t, out, "Edits")
	assert.Contains(t, out, "ident -> ident")
	assert.Contains(t, out, "@@ -")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, addSrc, string(data), "rename must not touch the file")
}

func TestExecute_RenameMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.go", addSrc)

	out, _, err := run(t, dir, "rename", "--from", "nope", "--to", "x", path)
	require.NoError(t, err)
	assert.Contains(t, out, `no identifier named "nope"`)
}

func TestExecute_RenameInvalidTarget(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.go", addSrc)

	_, errOut, err := run(t, dir, "rename", "--from", "add", "--to", "1bad", path)
	require.Error(t, err)
	assert.Contains(t, errOut, "✗ rename add")
}

func TestExecute_Stats(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.go", addSrc)
	b := writeFile(t, dir, "b.go", "package calc\n\nvar x = 1\n\nfunc f() {}\n\nfunc g() {}\n")

	out, _, err := run(t, dir, "stats", "--metrics", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, a)
	assert.Contains(t, out, b)
	assert.Contains(t, out, "facet_view_materialized_total")

	out, errOut, err := run(t, dir, "stats", a, filepath.Join(dir, "missing.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 file(s) failed to load")
	assert.Contains(t, errOut, "failed to load")
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "missing.go")
}

func TestExecute_History(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "facet.yaml", "storage:\n  path: "+filepath.Join(dir, "history")+"\n")
	path := writeFile(t, dir, "calc.go", addSrc)

	out, _, err := run(t, dir, "history", path)
	require.NoError(t, err)
	assert.Contains(t, out, "at revision 0")
	assert.Contains(t, out, "func_decl")
	assert.Contains(t, out, "revisions: [0]")

	out, _, err = run(t, dir, "history", path)
	require.NoError(t, err)
	assert.Contains(t, out, "unchanged since revision 0")

	writeFile(t, dir, "calc.go", addSrc+"\nfunc sub(a, b int) int {\n\treturn a - b\n}\n")
	out, _, err = run(t, dir, "history", path)
	require.NoError(t, err)
	assert.Contains(t, out, "at revision 1")
	assert.Contains(t, out, "kept")
	assert.Contains(t, out, "new")
	assert.Contains(t, out, "revisions: [0 1]")

	out, _, err = run(t, dir, "history", "--show", "0", path)
	require.NoError(t, err)
	assert.Contains(t, out, `ident "add"`)
	assert.NotContains(t, out, `ident "sub"`)
}

func TestExecute_Watch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "facet.yaml", "storage:\n  in_memory: true\n")
	src := filepath.Join(dir, "src")
	path := writeFile(t, src, "calc.go", addSrc)

	written := make(chan error, 1)
	go func() {
		// Give the command time to load and start watching.
		time.Sleep(500 * time.Millisecond)
		written <- os.WriteFile(path, []byte(strings.Replace(addSrc, "a + b", "a - b", 1)), 0o644)
	}()

	out, _, err := run(t, dir, "watch", "--record", "--timeout", "3s", src)
	require.NoError(t, err)
	require.NoError(t, <-written)
	assert.Contains(t, out, "watching 1 file(s) under "+src)
	assert.Contains(t, out, "reloaded "+path+" (recorded revision 1)")
}

func TestExecute_Flags(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "calc.go", addSrc)

	var stdout, stderr bytes.Buffer
	err := execute(context.Background(),
		[]string{"--config", filepath.Join(dir, "facet.yaml"), "--color", "sometimes", "dump", path},
		&stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "invalid --color")

	_, _, err = run(t, dir, "--log-level", "loud", "dump", path)
	require.Error(t, err)

	writeFile(t, dir, "facet.yaml", "workspace:\n  concurrency: 0\n")
	_, _, err = run(t, dir, "dump", path)
	require.Error(t, err)
}

func TestGoFiles_SkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", addSrc)
	writeFile(t, dir, "sub/b.go", addSrc)
	writeFile(t, dir, "sub/notes.txt", "x")
	writeFile(t, dir, "vendor/c.go", addSrc)

	got, err := goFiles(dir, []string{"vendor"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "sub", "b.go"),
	}, got)
}

func TestGatherFacetMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "facet_test_total", Help: "h"}, []string{"outcome"})
	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "other_total", Help: "h"})
	reg.MustRegister(vec, other)
	vec.WithLabelValues("reused").Add(2)
	other.Inc()

	lines, err := gatherFacetMetrics(reg)
	require.NoError(t, err)
	assert.Equal(t, []string{`facet_test_total{outcome="reused"} 2`}, lines)
}

func TestPrinter_PlainOutput(t *testing.T) {
	p := newPrinter(&bytes.Buffer{}, false)
	assert.Equal(t, "✓ ok", p.success("ok"))
	assert.Equal(t, "⚠ careful", p.warning("careful"))
	assert.Equal(t, "✗ failed", p.failure("failed"))
	assert.Equal(t, "+x", p.diffLine("+x"))
}
