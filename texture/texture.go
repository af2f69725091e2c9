// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package texture turns texture locators into raw pixel data that
// rendering backends can upload. It knows where to find image files
// (a directory or a kar archive) and how to decode them, nothing about
// the backend the pixels end up in.
package texture

import (
	"errors"
	"image"
	"image/draw"
)

// ErrEmptyImage is returned for images without a single pixel.
var ErrEmptyImage = errors.New("image has no pixels")

// Pixels is decoded, non-premultiplied RGBA8 pixel data, top row first.
type Pixels struct {
	Width  int
	Height int

	// Stride is the distance in bytes between two rows,
	// at least 4*Width. Rows may carry trailing padding.
	Stride int

	Data []uint8
}

// Size returns the number of bytes occupied by the pixel data.
func (p *Pixels) Size() int {
	return len(p.Data)
}

// Row returns the pixels of row y, without padding.
func (p *Pixels) Row(y int) []uint8 {
	off := y * p.Stride
	return p.Data[off : off+4*p.Width]
}

// FlipVertical reverses the row order in place, for backends
// that expect the bottom row first.
func (p *Pixels) FlipVertical() {
	tmp := make([]uint8, 4*p.Width)
	for top, bottom := 0, p.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		copy(tmp, p.Row(top))
		copy(p.Row(top), p.Row(bottom))
		copy(p.Row(bottom), tmp)
	}
}

// GetPixels transforms a given image into the right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas. A rowPitch
// wider than a tightly packed row is applied as the canvas stride, smaller
// values are ignored.
func GetPixels(img image.Image, rowPitch int) (*Pixels, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, ErrEmptyImage
	}

	stride := 4 * width
	if rowPitch > stride {
		stride = rowPitch
	}

	canvas := &image.NRGBA{
		Pix:    make([]uint8, stride*height),
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
	draw.Draw(canvas, canvas.Rect, img, bounds.Min, draw.Src)

	return &Pixels{
		Width:  width,
		Height: height,
		Stride: stride,
		Data:   canvas.Pix,
	}, nil
}
