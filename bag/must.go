// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bag

import "github.com/devblok/texbag/gfx"

// MustNewEager is like NewEager but panics on error.
func MustNewEager(backend gfx.Backend, cfg Configuration) *Bag {
	b, err := NewEager(backend, cfg)
	if err != nil {
		panic(err)
	}
	return b
}

// MustNewLazy is like NewLazy but panics on error.
func MustNewLazy(backend gfx.Backend, cfg Configuration) *Bag {
	b, err := NewLazy(backend, cfg)
	if err != nil {
		panic(err)
	}
	return b
}

// MustTexture is like Texture but panics on error.
func (b *Bag) MustTexture(id string, backend gfx.Backend) gfx.Texture {
	tex, err := b.Texture(id, backend)
	if err != nil {
		panic(err)
	}
	return tex
}
