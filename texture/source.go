// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"

	"github.com/devblok/texbag/kar"
	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Source opens the raw, still encoded, data behind a locator.
type Source interface {
	Open(locator string) (io.ReadCloser, error)
}

// Dir is a Source that treats locators as file paths. Relative
// locators are resolved against the directory, an empty Dir
// resolves them against the working directory.
type Dir string

// Open implements Source.
func (d Dir) Open(locator string) (io.ReadCloser, error) {
	name := filepath.FromSlash(locator)
	if d != "" && !filepath.IsAbs(name) {
		name = filepath.Join(string(d), name)
	}
	return os.Open(name)
}

// Archive is a Source that serves locators out of a kar archive.
// Locators are matched against archive entry names after being
// cleaned into slash separated form.
type Archive struct {
	archive *kar.Archive
	closer  io.Closer
}

// NewArchive wraps an already opened archive.
func NewArchive(ar *kar.Archive) *Archive {
	return &Archive{archive: ar}
}

// OpenArchive memory maps the kar archive at file and returns it as a Source.
// The returned Archive must be closed once textures are no longer loaded from it.
func OpenArchive(file string) (*Archive, error) {
	r, err := mmap.Open(file)
	if err != nil {
		return nil, errors.Wrapf(err, "archive open failed: %s", file)
	}

	ar, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, errors.Wrapf(err, "archive read failed: %s", file)
	}

	return &Archive{
		archive: ar,
		closer:  r,
	}, nil
}

// Kar returns the underlying archive.
func (a *Archive) Kar() *kar.Archive {
	return a.archive
}

// Open implements Source.
func (a *Archive) Open(locator string) (io.ReadCloser, error) {
	r, err := a.archive.Open(path.Clean(filepath.ToSlash(locator)))
	if err != nil {
		return nil, err
	}
	return ioutil.NopCloser(r), nil
}

// Close unmaps the archive if it was opened with OpenArchive.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
