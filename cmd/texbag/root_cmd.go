// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/devblok/texbag/bag"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	EnvVariableConfig = "TEXBAG_CONFIG"
)

type rootOpts struct {
	Config  string
	EnvFile string
	Verbose bool
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
texbag verifies texture configs and packs textures into kar archives.

Workflow:
  texbag pack textures -o textures.kar                       # Pack a texture directory.
  texbag ls textures.kar                                     # What is in the archive?
  texbag check --config texture_config.json -a textures.kar  # Does every texture load?
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "texbag",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", bag.DefaultConfigPath,
		fmt.Sprintf("texture config to use; you can also set the environment variable %s", EnvVariableConfig))
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment variables from this file first")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every texture as it is loaded")

	cmd.AddCommand(
		newCheck(opts).Command(),
		newPack(opts).Command(),
		newList(opts).Command(),
	)

	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return errors.Wrap(err, "loading environment file "+opts.EnvFile)
		}
		envy.Reload()
	}

	if !cmd.Flags().Changed("config") {
		opts.Config = envy.Get(EnvVariableConfig, opts.Config)
	}
	return nil
}

func newTabwriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
}
