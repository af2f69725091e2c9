// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bag

import (
	"github.com/devblok/texbag/gfx"
	"github.com/devblok/texbag/texture"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Decoder turns a locator into pixel data ready for upload.
// texture.Loader is the usual implementation.
type Decoder interface {
	Load(locator string) (*texture.Pixels, error)
}

// Configuration is used to configure a Bag. The zero value reads
// DefaultConfigPath and resolves locators against the working directory.
type Configuration struct {
	// ConfigPath is the texture config to load, DefaultConfigPath if empty.
	ConfigPath string

	// Registry, when set, is used instead of loading ConfigPath.
	Registry *Registry

	// Decoder loads pixels for a locator, defaults to a
	// texture.Loader reading files relative to the working directory.
	// The default keeps the top row first, backends expecting the
	// bottom row first need a Loader with FlipVertical set.
	Decoder Decoder

	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Bag holds textures by ID. See the package documentation
// for the lifecycle of textures held in a Bag.
type Bag struct {
	registry *Registry
	textures map[string]gfx.Texture
	decoder  Decoder
	log      logrus.FieldLogger
}

func newBag(cfg Configuration) (*Bag, error) {
	registry := cfg.Registry
	if registry == nil {
		r, err := LoadRegistry(cfg.ConfigPath)
		if err != nil {
			return nil, err
		}
		registry = r
	}

	decoder := cfg.Decoder
	if decoder == nil {
		decoder = texture.NewLoader(texture.Dir(""))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Bag{
		registry: registry,
		textures: make(map[string]gfx.Texture, registry.Len()),
		decoder:  decoder,
		log:      logger,
	}, nil
}

// NewEager loads the texture config and uploads every texture in it
// with backend. If any texture fails, the ones already uploaded are
// released and the error is returned.
func NewEager(backend gfx.Backend, cfg Configuration) (*Bag, error) {
	b, err := newBag(cfg)
	if err != nil {
		return nil, err
	}

	for _, id := range b.registry.IDs() {
		if _, err := b.Texture(id, backend); err != nil {
			b.Release()
			return nil, err
		}
	}

	b.log.WithField("textures", len(b.textures)).Info("texture bag loaded")
	return b, nil
}

// NewLazy loads the texture config only, textures are uploaded
// on their first request. The backend is not used until then.
func NewLazy(_ gfx.Backend, cfg Configuration) (*Bag, error) {
	b, err := newBag(cfg)
	if err != nil {
		return nil, err
	}

	b.log.WithField("registered", b.registry.Len()).Debug("lazy texture bag created")
	return b, nil
}

// Texture returns the texture registered as id, loading and uploading
// it with backend if it's not held yet. The returned Texture is owned
// by the Bag: do not Release it and do not use it after Forget(id) or
// Release was called.
func (b *Bag) Texture(id string, backend gfx.Backend) (gfx.Texture, error) {
	if tex, ok := b.textures[id]; ok {
		return tex, nil
	}

	locator, ok := b.registry.Lookup(id)
	if !ok {
		return nil, &Error{
			Kind: ErrUnknownTexture,
			ID:   id,
		}
	}

	tex, err := b.materialize(id, locator, backend)
	if err != nil {
		return nil, err
	}
	b.textures[id] = tex
	return tex, nil
}

func (b *Bag) materialize(id, locator string, backend gfx.Backend) (gfx.Texture, error) {
	fail := func(err error) error {
		return &Error{
			Kind:    ErrMaterialize,
			ID:      id,
			Locator: locator,
			Err:     err,
		}
	}

	if backend == nil {
		return nil, fail(errors.New("no backend to upload to"))
	}

	pixels, err := b.decoder.Load(locator)
	if err != nil {
		return nil, fail(errors.Wrap(err, "decode"))
	}

	tex, err := backend.Upload(id, pixels)
	if err != nil {
		return nil, fail(errors.Wrap(err, "upload"))
	} else if tex == nil {
		return nil, fail(errors.New("backend returned no texture"))
	}

	b.log.WithFields(logrus.Fields{
		"texture": id,
		"locator": locator,
		"extent":  tex.Extent().String(),
	}).Debug("texture materialized")
	return tex, nil
}

// Forget releases the texture held for id. The next request for it loads
// it again. Does nothing if the texture is not held, the ID stays registered.
func (b *Bag) Forget(id string) {
	tex, ok := b.textures[id]
	if !ok {
		return
	}
	delete(b.textures, id)
	tex.Release()
	b.log.WithField("texture", id).Debug("texture forgotten")
}

// Release releases every texture held. The Bag remains usable and
// loads textures again on request, as if it was created with NewLazy.
func (b *Bag) Release() {
	for id, tex := range b.textures {
		tex.Release()
		delete(b.textures, id)
	}
}

// Loaded reports whether the texture for id is currently held.
func (b *Bag) Loaded(id string) bool {
	_, ok := b.textures[id]
	return ok
}

// Len returns the number of textures currently held.
func (b *Bag) Len() int {
	return len(b.textures)
}

// Registry returns the registry the Bag was loaded with.
func (b *Bag) Registry() *Registry {
	return b.registry
}
