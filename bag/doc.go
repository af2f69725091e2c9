// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package bag keeps uploaded textures under symbolic IDs.
//
// A Bag is loaded from a texture config that maps IDs to locators:
//
//	{
//	    "textures": {
//	        "brick": "assets/brick.png",
//	        "grass": "assets/grass.png"
//	    }
//	}
//
// The mapping is fixed once loaded. Textures are decoded and uploaded
// either all at once (NewEager) or on their first request (NewLazy).
// Every texture ID is in one of two states: not held, or held after a
// successful Texture call. Forget drops a held texture, the ID remains
// registered and a later Texture call uploads it again.
//
// Ownership
//
// The Bag is the only owner of the textures it holds and releases them
// on Forget and Release. Textures returned by Texture are borrowed and
// become invalid once they are forgotten.
//
// Concurrency
//
// A Bag is not safe for concurrent use. Every operation runs to
// completion on the calling goroutine, a texture miss blocks until the
// image is decoded and uploaded. Guard a shared Bag with a mutex.
//
// Errors
//
// All failures are reported as *Error values whose kind can be
// tested with errors.Is against ErrConfigIO, ErrConfigFormat,
// ErrUnknownTexture and ErrMaterialize. A failed operation leaves the
// Bag as it was. MustNewEager, MustNewLazy and MustTexture panic instead.
package bag
