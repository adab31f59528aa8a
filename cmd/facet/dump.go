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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/facet/services/facet/green"
	"github.com/AleutianAI/facet/services/facet/sitter"
)

func newDumpCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print the persistent tree of a Go file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.importFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				data, err := green.Marshal(res.Tree)
				if err != nil {
					return err
				}
				a.out.println(string(data))
				return nil
			}
			a.out.printf("%s", green.Dump(res.Tree).String())
			for _, d := range res.Diagnostics {
				a.out.println(a.out.warning(fmt.Sprintf("%s:%s", res.Path, d)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree in its JSON encoding")
	return cmd
}

// importFile reads and imports one Go file.
func (a *app) importFile(ctx context.Context, path string) (*sitter.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.importer().Import(ctx, path, content)
}
