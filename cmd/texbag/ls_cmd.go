// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"time"

	"github.com/devblok/texbag/texture"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type listOpts struct {
	*rootOpts
}

func newList(parent *rootOpts) *listOpts {
	return &listOpts{rootOpts: parent}
}

func (opts *listOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls ARCHIVE",
		Short:   "list the entries of a kar archive",
		Example: "  texbag ls textures.kar",
		RunE:    opts.RunE,
	}
	return cmd
}

func (opts *listOpts) RunE(cmd *cobra.Command, args []string) error {
	if err := exactlyOneArg("the archive to list", args); err != nil {
		return err
	}

	ar, err := texture.OpenArchive(args[0])
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Kar().Header()
	fmt.Fprintf(cmd.OutOrStdout(), "author: %s, version: %d, created %s\n",
		header.Author, header.Version, humanize.Time(time.Unix(header.DateCreated, 0)))

	out := newTabwriter(cmd.OutOrStdout())
	fmt.Fprintln(out, "NAME\tSIZE\tCOMPRESSED")
	for _, name := range ar.Kar().Names() {
		entry, err := ar.Kar().Stat(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", entry.Name,
			humanize.Bytes(uint64(entry.Size)), humanize.Bytes(uint64(entry.CompressedSize)))
	}
	return out.Flush()
}
