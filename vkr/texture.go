// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	"github.com/devblok/texbag/gfx"
	vk "github.com/devblok/vulkan"
)

// Texture is a device local image uploaded by an Uploader,
// in the shader read only layout once returned.
type Texture struct {
	id     string
	device vk.Device
	image  vk.Image
	view   vk.ImageView
	mem    *Allocation
	extent gfx.Extent2D

	hasView  bool
	released bool
}

func newTexture(dev vk.Device, alloc *Allocator, id string, extent gfx.Extent2D) (*Texture, error) {
	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  uint32(extent.Width),
			Height: uint32(extent.Height),
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        TextureFormat,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		Samples:       vk.SampleCount1Bit,
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(dev, &ici, nil, &image)); err != nil {
		return nil, fmt.Errorf("vk.CreateImage(): %s", err.Error())
	}
	tex := &Texture{
		id:     id,
		device: dev,
		image:  image,
		extent: extent,
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, image, &req)
	req.Deref()

	mem, err := alloc.Alloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		tex.Release()
		return nil, err
	}
	tex.mem = mem

	if err := vk.Error(vk.BindImageMemory(dev, image, mem.memory, 0)); err != nil {
		tex.Release()
		return nil, fmt.Errorf("vk.BindImageMemory(): %s", err.Error())
	}
	return tex, nil
}

func (t *Texture) createView() error {
	ivci := vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            t.image,
		ViewType:         vk.ImageViewType2d,
		Format:           TextureFormat,
		SubresourceRange: colorSubresourceRange(),
	}

	if err := vk.Error(vk.CreateImageView(t.device, &ivci, nil, &t.view)); err != nil {
		return fmt.Errorf("vk.CreateImageView(): %s", err.Error())
	}
	t.hasView = true
	return nil
}

// ID returns the ID the texture was uploaded under.
func (t *Texture) ID() string {
	return t.id
}

// Image returns the vulkan image handle.
func (t *Texture) Image() vk.Image {
	return t.image
}

// View returns the image view to be bound in descriptor sets.
func (t *Texture) View() vk.ImageView {
	return t.view
}

// Extent implements gfx.Texture.
func (t *Texture) Extent() gfx.Extent2D {
	return t.extent
}

// Release destroys the view and the image and frees its memory.
// Releasing twice has no effect.
func (t *Texture) Release() {
	if t.released {
		return
	}
	if t.hasView {
		vk.DestroyImageView(t.device, t.view, nil)
	}
	vk.DestroyImage(t.device, t.image, nil)
	if t.mem != nil {
		t.mem.Free()
	}
	t.released = true
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}
}
