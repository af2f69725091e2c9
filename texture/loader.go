// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"image"
	"io"

	// Registered decoders, any of these formats can be a texture.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads an image in any of the registered formats and
// converts it to tightly packed pixels.
func Decode(r io.Reader) (*Pixels, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return GetPixels(img, 0)
}

// NewLoader creates a Loader reading from src.
func NewLoader(src Source) *Loader {
	return &Loader{
		Source: src,
	}
}

// Loader resolves locators through a Source and decodes them.
type Loader struct {
	Source Source

	// RowPitch is handed to GetPixels, zero packs rows tightly.
	RowPitch int

	// FlipVertical stores the bottom row first.
	FlipVertical bool
}

// Load opens and decodes the image behind locator. Nothing is cached,
// every call reads the source again.
func (l *Loader) Load(locator string) (*Pixels, error) {
	f, err := l.Source.Open(locator)
	if err != nil {
		return nil, errors.Wrapf(err, "texture file open failed: %s", locator)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "texture decode failed: %s", locator)
	}

	pixels, err := GetPixels(img, l.RowPitch)
	if err != nil {
		return nil, errors.Wrapf(err, "%s texture %s", format, locator)
	}

	if l.FlipVertical {
		pixels.FlipVertical()
	}
	return pixels, nil
}
