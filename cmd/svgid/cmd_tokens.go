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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AleutianAI/svgid/services/uniqueid/config"
	"github.com/AleutianAI/svgid/services/uniqueid/generator"
	"github.com/spf13/cobra"
)

func newTokensCmd(a *app) *cobra.Command {
	var (
		prefix    string
		instances int
		renders   int
	)
	cmd := &cobra.Command{
		Use:   "tokens [ids-per-component]",
		Short: "Show the tokens a rewritten component receives at runtime",
		Long: `Tokens mounts component instances against an id generator and prints
the token each hook call returns on every render. Tokens are unique across
instances and stable across re-renders of one instance.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slots := 2
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return a.fail(fmt.Errorf("ids-per-component must be a positive integer, got %q", args[0]))
				}
				slots = n
			}
			if instances < 1 || renders < 1 {
				return a.fail(errors.New("--instances and --renders must be positive"))
			}

			cfg, err := a.loadConfig(config.Overrides{})
			if err != nil {
				return a.fail(err)
			}
			provider := generator.ProviderFromConfig(cfg)
			if cmd.Flags().Changed("prefix") {
				provider = generator.NewProvider(prefix)
			}

			out := cmd.OutOrStdout()
			for i := 0; i < instances; i++ {
				inst := provider.NewInstance()
				for r := 0; r < renders; r++ {
					inst.Render()
					toks := make([]string, slots)
					for s := range toks {
						toks[s] = inst.UseUniqueInlineID()
					}
					fmt.Fprintf(out, "instance %d render %d: %s\n", i, r, strings.Join(toks, " "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", config.DefaultPrefix, "Token prefix (overrides config idPrefix)")
	cmd.Flags().IntVar(&instances, "instances", 2, "Number of component instances to mount")
	cmd.Flags().IntVar(&renders, "renders", 2, "Renders per instance")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the svgid version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "svgid %s\n", version)
		},
	}
}
