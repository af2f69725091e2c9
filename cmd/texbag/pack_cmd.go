// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/devblok/texbag/kar"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type packOpts struct {
	*rootOpts
	output  string
	author  string
	version int64
}

func newPack(parent *rootOpts) *packOpts {
	return &packOpts{rootOpts: parent}
}

func currentUserName() string {
	u, err := user.Current()
	if err != nil || u.Name == "" {
		return "unknown"
	}
	return u.Name
}

func (opts *packOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pack DIR",
		Short:   "pack a directory of textures into a kar archive",
		Example: "  texbag pack assets/textures -o textures.kar",
		RunE:    opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "out.kar", "destination file")
	cmd.Flags().StringVar(&opts.author, "author", currentUserName(), "author of the archive")
	cmd.Flags().Int64Var(&opts.version, "version", 1, "archive version number")
	return cmd
}

func (opts *packOpts) RunE(cmd *cobra.Command, args []string) error {
	if err := exactlyOneArg("the directory to pack", args); err != nil {
		return err
	}
	dir := args[0]

	if _, err := os.Stat(opts.output); err == nil {
		return errors.Errorf("destination file %s exists, will not overwrite", opts.output)
	}

	var filesToCompress []string
	if err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	builder, err := kar.NewBuilder(kar.Header{
		Author:      opts.author,
		DateCreated: time.Now().Unix(),
		Version:     opts.version,
	})
	if err != nil {
		return err
	}
	defer builder.Close()

	for _, ftc := range filesToCompress {
		name, err := filepath.Rel(dir, ftc)
		if err != nil {
			return err
		}
		if err := addFile(builder, filepath.ToSlash(name), ftc); err != nil {
			return err
		}
		log.WithField("file", ftc).Debug("packed")
	}

	dst, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	n, err := builder.WriteTo(dst)
	if err != nil {
		dst.Close()
		os.Remove(opts.output)
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "packed %d files into %s (%s)\n", builder.Len(), opts.output, humanize.Bytes(uint64(n)))
	return nil
}

func addFile(builder *kar.Builder, name, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return builder.Add(name, f)
}
