// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines rendering related features that backends must implement.
package gfx

import (
	"fmt"

	"github.com/devblok/texbag/texture"
)

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Extent2D is the size of a two dimensional resource in pixels.
type Extent2D struct {
	Width, Height int
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Texture is a backend owned handle to pixel data that was
// uploaded for rendering. Whoever holds the only reference to a
// Texture is responsible for calling Release on it exactly once.
type Texture interface {
	Releasable

	// Extent returns the dimensions of the uploaded image.
	Extent() Extent2D
}

// Backend uploads decoded pixels to the rendering backend.
// It is the opaque capability a texture bag passes through
// to materialize resources, the bag never inspects it.
type Backend interface {

	// Upload creates a backend texture from p. The id is the
	// symbolic name the texture is requested under and may be
	// used for debug labels only.
	Upload(id string, p *texture.Pixels) (Texture, error)
}
