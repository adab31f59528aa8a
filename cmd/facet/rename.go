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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/facet/services/facet/document"
	"github.com/AleutianAI/facet/services/facet/goview"
)

func newRenameCmd(a *app) *cobra.Command {
	var from, to string
	var context int
	cmd := &cobra.Command{
		Use:   "rename --from NAME --to NAME FILE",
		Short: "Rename an identifier and show the resulting tree edits",
		Long: `Rename every identifier spelled --from to --to, export the edited view
and print the edit ranges between the old and new trees followed by a
unified diff of their dumps. The file on disk is not modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc, err := document.Open(ctx, a.importer(), path, content,
				document.WithLogger(a.logger.Slog()))
			if err != nil {
				return err
			}
			before := doc.Current()

			n, err := goview.Rename(doc.Root(), from, to)
			if err != nil {
				return fmt.Errorf("rename %s: %w", from, err)
			}
			if n == 0 {
				a.out.println(a.out.warning(fmt.Sprintf("no identifier named %q in %s", from, path)))
				return nil
			}
			after, err := doc.Tree(ctx)
			if err != nil {
				return err
			}

			a.out.println(a.out.success(fmt.Sprintf("renamed %d identifier(s) %s %s %s",
				n, from, iconArrow, to)))
			a.out.println(a.out.title("Edits"))
			for _, e := range doc.Edits() {
				a.out.println("  " + e.String())
			}

			fd, err := dumpDiff(path, before, after, context)
			if err != nil {
				return err
			}
			if fd != nil {
				a.out.println(a.out.title("Tree diff"))
				printFileDiff(a.out, fd)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&from, "from", "", "identifier to rename")
	flags.StringVar(&to, "to", "", "new name")
	flags.IntVar(&context, "context", 2, "lines of context in the tree diff")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
