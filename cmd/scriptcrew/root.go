// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/jllopis/scriptcrew/pkg/config"
)

type rootOptions struct {
	configPath string
	profile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	return config.Load(o.configPath, o.profile)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "scriptcrew",
		Short:         "Generate and refine ad scripts with a crew of LLM agents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config YAML")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "config profile overlay (config.<profile>.yaml)")

	cmd.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newRefineCmd(opts),
	)
	return cmd
}
