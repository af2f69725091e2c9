// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"

	"github.com/devblok/texbag/bag"
	"github.com/devblok/texbag/soft"
	"github.com/devblok/texbag/texture"
	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type checkOpts struct {
	*rootOpts
	root    string
	archive string
	flip    bool
}

func newCheck(parent *rootOpts) *checkOpts {
	return &checkOpts{rootOpts: parent}
}

const checkExample = "  texbag check --config texture_config.json --root assets\n" +
	"  texbag check --config texture_config.json --archive textures.kar"

func (opts *checkOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check",
		Short:   "load every texture of a config and report it",
		Example: checkExample,
		RunE:    opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "directory relative locators are resolved against")
	cmd.Flags().StringVarP(&opts.archive, "archive", "a", "", "kar archive to load textures from instead of the file system")
	cmd.Flags().BoolVar(&opts.flip, "flip", false, "store textures bottom row first")
	return cmd
}

func (opts *checkOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errorWantedNoArgs
	}
	if opts.root != "" && opts.archive != "" {
		return newUsageError("please supply only one of --root or --archive")
	}

	var src texture.Source = texture.Dir(opts.root)
	if opts.archive != "" {
		ar, err := texture.OpenArchive(opts.archive)
		if err != nil {
			return err
		}
		defer ar.Close()
		src = ar
	}

	loader := texture.NewLoader(src)
	loader.FlipVertical = opts.flip

	backend := soft.New()
	b, err := bag.NewEager(backend, bag.Configuration{
		ConfigPath: opts.Config,
		Decoder:    loader,
		Logger:     log.WithField("config", opts.Config),
	})
	if err != nil {
		return err
	}
	defer b.Release()

	out := newTabwriter(cmd.OutOrStdout())
	fmt.Fprintln(out, "ID\tLOCATOR\tEXTENT\tSIZE")
	for _, id := range b.Registry().IDs() {
		tex, err := b.Texture(id, backend)
		if err != nil {
			return err
		}
		locator, _ := b.Registry().Lookup(id)
		size := tex.(*soft.Texture).Pixels().Size()
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", id, locator, tex.Extent(), humanize.Bytes(uint64(size)))
	}
	if err := out.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d textures, %s\n", b.Len(), humanize.Bytes(uint64(backend.Bytes())))
	return nil
}
