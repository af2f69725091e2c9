// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package soft implements a backend that keeps textures in host memory.
// It is used by tools that only need to verify textures, and by tests.
package soft

import (
	"errors"

	"github.com/devblok/texbag/gfx"
	"github.com/devblok/texbag/texture"
)

// ErrNoPixels is returned when asked to upload nothing.
var ErrNoPixels = errors.New("soft: no pixel data to upload")

// New creates a new host memory backend.
func New() *Backend {
	return &Backend{}
}

// Backend stores a copy of every uploaded image.
// It is not safe for concurrent use.
type Backend struct {
	uploads int
	live    int
	bytes   int
}

// Upload implements gfx.Backend.
func (b *Backend) Upload(id string, p *texture.Pixels) (gfx.Texture, error) {
	if p == nil || len(p.Data) == 0 {
		return nil, ErrNoPixels
	}

	data := make([]uint8, len(p.Data))
	copy(data, p.Data)

	b.uploads++
	b.live++
	b.bytes += len(data)

	return &Texture{
		id:      id,
		backend: b,
		extent: gfx.Extent2D{
			Width:  p.Width,
			Height: p.Height,
		},
		pixels: &texture.Pixels{
			Width:  p.Width,
			Height: p.Height,
			Stride: p.Stride,
			Data:   data,
		},
	}, nil
}

// Uploads returns the number of textures ever uploaded.
func (b *Backend) Uploads() int {
	return b.uploads
}

// Live returns the number of uploaded textures that were not released.
func (b *Backend) Live() int {
	return b.live
}

// Bytes returns the amount of memory held by live textures.
func (b *Backend) Bytes() int {
	return b.bytes
}

// Texture is an image held in host memory.
type Texture struct {
	id      string
	backend *Backend
	extent  gfx.Extent2D
	pixels  *texture.Pixels
}

// ID returns the id the texture was uploaded under.
func (t *Texture) ID() string {
	return t.id
}

// Extent implements gfx.Texture.
func (t *Texture) Extent() gfx.Extent2D {
	return t.extent
}

// Pixels returns the held pixel data, nil once released.
func (t *Texture) Pixels() *texture.Pixels {
	return t.pixels
}

// Released reports whether Release was called.
func (t *Texture) Released() bool {
	return t.pixels == nil
}

// Release implements gfx.Releasable. Releasing twice has no effect.
func (t *Texture) Release() {
	if t.pixels == nil {
		return
	}
	t.backend.live--
	t.backend.bytes -= len(t.pixels.Data)
	t.pixels = nil
}
