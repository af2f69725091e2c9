// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bag_test

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/devblok/texbag/bag"
	"github.com/devblok/texbag/gfx"
	"github.com/devblok/texbag/soft"
	"github.com/devblok/texbag/texture"
)

// countingDecoder hands out a single pixel for every locator it knows.
type countingDecoder struct {
	loads map[string]int
	fail  map[string]bool
}

func newCountingDecoder() *countingDecoder {
	return &countingDecoder{
		loads: make(map[string]int),
		fail:  make(map[string]bool),
	}
}

func (d *countingDecoder) Load(locator string) (*texture.Pixels, error) {
	d.loads[locator]++
	if d.fail[locator] {
		return nil, errors.New("corrupt image")
	}
	return &texture.Pixels{Width: 1, Height: 1, Stride: 4, Data: []uint8{1, 2, 3, 4}}, nil
}

// rejectingBackend refuses to upload some textures.
type rejectingBackend struct {
	*soft.Backend
	reject string
}

func (b *rejectingBackend) Upload(id string, p *texture.Pixels) (gfx.Texture, error) {
	if id == b.reject {
		return nil, errors.New("out of device memory")
	}
	return b.Backend.Upload(id, p)
}

func quietLogger() logrus.FieldLogger {
	logger, _ := logtest.NewNullLogger()
	return logger
}

func scenarioConfig(decoder bag.Decoder) bag.Configuration {
	return bag.Configuration{
		Registry: bag.NewRegistry(map[string]string{
			"brick": "brick.png",
			"grass": "grass.png",
		}),
		Decoder: decoder,
		Logger:  quietLogger(),
	}
}

func TestScenario(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()
	decoder := newCountingDecoder()

	b, err := bag.NewLazy(backend, scenarioConfig(decoder))
	c.Assert(err, qt.IsNil)
	c.Assert(b.Len(), qt.Equals, 0)

	_, err = b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(b.Len(), qt.Equals, 1)
	c.Assert(b.Loaded("brick"), qt.IsTrue)

	b.Forget("brick")
	c.Assert(b.Len(), qt.Equals, 0)

	_, err = b.Texture("grass", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(b.Len(), qt.Equals, 1)
	c.Assert(b.Loaded("grass"), qt.IsTrue)
	c.Assert(b.Loaded("brick"), qt.IsFalse)

	_, err = b.Texture("stone", backend)
	c.Assert(err, qt.ErrorIs, bag.ErrUnknownTexture)
	c.Assert(err, qt.ErrorMatches, "unknown texture id: stone")
}

func TestTextureHitIsSameHandle(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()
	decoder := newCountingDecoder()

	b, err := bag.NewLazy(backend, scenarioConfig(decoder))
	c.Assert(err, qt.IsNil)

	first, err := b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)
	second, err := b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)

	c.Assert(second, qt.Equals, first)
	c.Assert(decoder.loads["brick.png"], qt.Equals, 1)
	c.Assert(backend.Uploads(), qt.Equals, 1)
}

func TestForgetReloads(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()
	decoder := newCountingDecoder()

	b, err := bag.NewLazy(backend, scenarioConfig(decoder))
	c.Assert(err, qt.IsNil)

	first, err := b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)

	b.Forget("brick")
	c.Assert(first.(*soft.Texture).Released(), qt.IsTrue)
	c.Assert(backend.Live(), qt.Equals, 0)
	c.Assert(b.Registry().Has("brick"), qt.IsTrue)

	second, err := b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(second, qt.Not(qt.Equals), first)
	c.Assert(decoder.loads["brick.png"], qt.Equals, 2)
	c.Assert(backend.Uploads(), qt.Equals, 2)
}

func TestForgetAbsentIsNoop(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()

	b, err := bag.NewLazy(backend, scenarioConfig(newCountingDecoder()))
	c.Assert(err, qt.IsNil)

	b.Forget("brick")
	b.Forget("stone")
	c.Assert(b.Len(), qt.Equals, 0)
	c.Assert(b.Registry().Len(), qt.Equals, 2)
}

func TestUnknownRegardlessOfCache(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()

	b, err := bag.NewEager(backend, scenarioConfig(newCountingDecoder()))
	c.Assert(err, qt.IsNil)
	c.Assert(b.Len(), qt.Equals, 2)

	_, err = b.Texture("stone", backend)
	c.Assert(err, qt.ErrorIs, bag.ErrUnknownTexture)
	c.Assert(b.Len(), qt.Equals, 2)
}

func TestEagerMaterializesEachOnce(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()
	decoder := newCountingDecoder()

	paths := map[string]string{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		paths[id] = id + ".png"
	}

	b, err := bag.NewEager(backend, bag.Configuration{
		Registry: bag.NewRegistry(paths),
		Decoder:  decoder,
		Logger:   quietLogger(),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(b.Len(), qt.Equals, len(paths))
	c.Assert(backend.Uploads(), qt.Equals, len(paths))
	for id, locator := range paths {
		c.Assert(b.Loaded(id), qt.IsTrue)
		c.Assert(decoder.loads[locator], qt.Equals, 1)
	}

	lazyBackend := soft.New()
	lazy, err := bag.NewLazy(lazyBackend, bag.Configuration{
		Registry: bag.NewRegistry(paths),
		Decoder:  decoder,
		Logger:   quietLogger(),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(lazy.Len(), qt.Equals, 0)
	c.Assert(lazyBackend.Uploads(), qt.Equals, 0)
}

func TestEagerFailureReleasesAll(t *testing.T) {
	c := qt.New(t)
	backend := &rejectingBackend{Backend: soft.New(), reject: "grass"}

	b, err := bag.NewEager(backend, scenarioConfig(newCountingDecoder()))
	c.Assert(b, qt.IsNil)
	c.Assert(err, qt.ErrorIs, bag.ErrMaterialize)
	c.Assert(err, qt.ErrorMatches, `texture materialization failed: grass \(grass.png\): upload: out of device memory`)

	// brick sorts first and was uploaded before grass failed
	c.Assert(backend.Uploads(), qt.Equals, 1)
	c.Assert(backend.Live(), qt.Equals, 0)
}

func TestMaterializeFailureInsertsNothing(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()
	decoder := newCountingDecoder()
	decoder.fail["brick.png"] = true

	b, err := bag.NewLazy(backend, scenarioConfig(decoder))
	c.Assert(err, qt.IsNil)

	_, err = b.Texture("brick", backend)
	c.Assert(err, qt.ErrorIs, bag.ErrMaterialize)

	var e *bag.Error
	c.Assert(errors.As(err, &e), qt.IsTrue)
	c.Assert(e.ID, qt.Equals, "brick")
	c.Assert(e.Locator, qt.Equals, "brick.png")
	c.Assert(b.Loaded("brick"), qt.IsFalse)
	c.Assert(backend.Uploads(), qt.Equals, 0)

	_, err = b.Texture("brick", nil)
	c.Assert(err, qt.ErrorIs, bag.ErrMaterialize)
}

func TestMalformedConfigBeforeMaterialization(t *testing.T) {
	c := qt.New(t)

	for _, data := range []string{`{"textures": "not-an-object"}`, `{"textures": {"a": 5}}`} {
		path := writeConfig(c, "textures.json", data)
		backend := soft.New()
		decoder := newCountingDecoder()

		_, err := bag.NewEager(backend, bag.Configuration{
			ConfigPath: path,
			Decoder:    decoder,
			Logger:     quietLogger(),
		})
		c.Assert(err, qt.ErrorIs, bag.ErrConfigFormat)
		c.Assert(decoder.loads, qt.HasLen, 0)
		c.Assert(backend.Uploads(), qt.Equals, 0)

		_, err = bag.NewLazy(backend, bag.Configuration{ConfigPath: path, Logger: quietLogger()})
		c.Assert(err, qt.ErrorIs, bag.ErrConfigFormat)
	}
}

func TestMissingConfig(t *testing.T) {
	c := qt.New(t)

	_, err := bag.NewLazy(soft.New(), bag.Configuration{
		ConfigPath: filepath.Join(os.TempDir(), "texbag-does-not-exist.json"),
		Logger:     quietLogger(),
	})
	c.Assert(err, qt.ErrorIs, bag.ErrConfigIO)
}

func TestRelease(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()

	b, err := bag.NewEager(backend, scenarioConfig(newCountingDecoder()))
	c.Assert(err, qt.IsNil)
	c.Assert(backend.Live(), qt.Equals, 2)

	b.Release()
	c.Assert(b.Len(), qt.Equals, 0)
	c.Assert(backend.Live(), qt.Equals, 0)

	_, err = b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(backend.Live(), qt.Equals, 1)
}

func TestIndependentBags(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()
	decoder := newCountingDecoder()

	first, err := bag.NewLazy(backend, scenarioConfig(decoder))
	c.Assert(err, qt.IsNil)
	second, err := bag.NewLazy(backend, scenarioConfig(decoder))
	c.Assert(err, qt.IsNil)

	a, err := first.Texture("brick", backend)
	c.Assert(err, qt.IsNil)
	b, err := second.Texture("brick", backend)
	c.Assert(err, qt.IsNil)

	c.Assert(a, qt.Not(qt.Equals), b)
	c.Assert(decoder.loads["brick.png"], qt.Equals, 2)
}

func TestMust(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()

	b := bag.MustNewLazy(backend, scenarioConfig(newCountingDecoder()))
	c.Assert(b.MustTexture("brick", backend), qt.Not(qt.IsNil))
	c.Assert(func() { b.MustTexture("stone", backend) }, qt.PanicMatches, "unknown texture id: stone")

	c.Assert(func() {
		bag.MustNewEager(&rejectingBackend{Backend: soft.New(), reject: "brick"}, scenarioConfig(newCountingDecoder()))
	}, qt.PanicMatches, "texture materialization failed: brick .*")
}

func TestLogsMaterialization(t *testing.T) {
	c := qt.New(t)
	backend := soft.New()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := scenarioConfig(newCountingDecoder())
	cfg.Logger = logger
	b, err := bag.NewLazy(backend, cfg)
	c.Assert(err, qt.IsNil)

	_, err = b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)

	entry := hook.LastEntry()
	c.Assert(entry, qt.Not(qt.IsNil))
	c.Assert(entry.Message, qt.Equals, "texture materialized")
	c.Assert(entry.Data["texture"], qt.Equals, "brick")
	c.Assert(entry.Data["locator"], qt.Equals, "brick.png")
}

func TestFilesEndToEnd(t *testing.T) {
	c := qt.New(t)

	path := writeConfig(c, "texture_config.json", `{"textures": {"brick": "brick.png", "broken": "missing.png"}}`)
	dir := filepath.Dir(path)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{200, 100, 50, 255})
	f, err := os.Create(filepath.Join(dir, "brick.png"))
	c.Assert(err, qt.IsNil)
	c.Assert(png.Encode(f, img), qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	backend := soft.New()
	b, err := bag.NewLazy(backend, bag.Configuration{
		ConfigPath: path,
		Decoder:    texture.NewLoader(texture.Dir(dir)),
		Logger:     quietLogger(),
	})
	c.Assert(err, qt.IsNil)

	tex, err := b.Texture("brick", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(tex.Extent(), qt.Equals, gfx.Extent2D{Width: 4, Height: 2})
	c.Assert(tex.(*soft.Texture).Pixels().Row(0)[0:4], qt.DeepEquals, []uint8{200, 100, 50, 255})

	_, err = b.Texture("broken", backend)
	c.Assert(err, qt.ErrorIs, bag.ErrMaterialize)
	c.Assert(errors.Is(err, os.ErrNotExist), qt.IsTrue)

	_, err = bag.NewEager(backend, bag.Configuration{
		ConfigPath: path,
		Decoder:    texture.NewLoader(texture.Dir(dir)),
		Logger:     quietLogger(),
	})
	c.Assert(err, qt.ErrorIs, bag.ErrMaterialize)
}

func TestRowOrder(t *testing.T) {
	c := qt.New(t)

	dir := filepath.Dir(writeConfig(c, "texture_config.json", `{"textures": {}}`))
	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	img.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	file := filepath.Join(dir, "stripe.png")
	f, err := os.Create(file)
	c.Assert(err, qt.IsNil)
	c.Assert(png.Encode(f, img), qt.IsNil)
	c.Assert(f.Close(), qt.IsNil)

	registry := bag.NewRegistry(map[string]string{"stripe": file})
	red := []uint8{255, 0, 0, 255}
	backend := soft.New()

	b, err := bag.NewEager(backend, bag.Configuration{
		Registry: registry,
		Logger:   quietLogger(),
	})
	c.Assert(err, qt.IsNil)
	tex, err := b.Texture("stripe", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(tex.(*soft.Texture).Pixels().Row(0), qt.DeepEquals, red)

	flipped := texture.NewLoader(texture.Dir(""))
	flipped.FlipVertical = true
	b, err = bag.NewEager(backend, bag.Configuration{
		Registry: registry,
		Decoder:  flipped,
		Logger:   quietLogger(),
	})
	c.Assert(err, qt.IsNil)
	tex, err = b.Texture("stripe", backend)
	c.Assert(err, qt.IsNil)
	c.Assert(tex.(*soft.Texture).Pixels().Row(1), qt.DeepEquals, red)
}
