// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements a Vulkan texture backend. Textures are
// copied through a host visible staging buffer into device local,
// optimally tiled images that are ready to be sampled from shaders.
package vkr

import (
	"errors"
	"fmt"

	"github.com/devblok/texbag/gfx"
	"github.com/devblok/texbag/texture"
	vk "github.com/devblok/vulkan"
)

// TextureFormat is the format every texture is uploaded in,
// it matches the layout of texture.Pixels.
const TextureFormat = vk.FormatR8g8b8a8Unorm

// ErrNoPixels is returned when there is nothing to upload.
var ErrNoPixels = errors.New("no pixel data to upload")

// NewUploader creates an Uploader that submits its copy commands to
// queue. The queue must belong to queueFamily and support transfers.
func NewUploader(device vk.Device, phyDevice vk.PhysicalDevice, queue vk.Queue, queueFamily uint32) (*Uploader, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}

	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, &cpci, nil, &pool)); err != nil {
		return nil, fmt.Errorf("vk.CreateCommandPool(): %s", err.Error())
	}

	return &Uploader{
		device: device,
		queue:  queue,
		pool:   pool,
		alloc:  NewAllocator(device, phyDevice),
	}, nil
}

// Uploader is a gfx.Backend that uploads textures into device local
// images. Every upload waits for the queue to become idle.
type Uploader struct {
	device vk.Device
	queue  vk.Queue
	pool   vk.CommandPool
	alloc  *Allocator
}

// Allocator returns the allocator textures are allocated from.
func (u *Uploader) Allocator() *Allocator {
	return u.alloc
}

// Upload implements gfx.Backend.
func (u *Uploader) Upload(id string, p *texture.Pixels) (gfx.Texture, error) {
	if p == nil || p.Width <= 0 || p.Height <= 0 || len(p.Data) == 0 {
		return nil, ErrNoPixels
	}

	staging, err := newStagingBuffer(u.device, u.alloc, p)
	if err != nil {
		return nil, fmt.Errorf("texture %s staging: %s", id, err.Error())
	}
	defer staging.release()

	tex, err := newTexture(u.device, u.alloc, id, gfx.Extent2D{Width: p.Width, Height: p.Height})
	if err != nil {
		return nil, fmt.Errorf("texture %s: %s", id, err.Error())
	}

	if err := u.copyToImage(staging.buffer, tex.image, tex.extent); err != nil {
		tex.Release()
		return nil, fmt.Errorf("texture %s copy: %s", id, err.Error())
	}

	if err := tex.createView(); err != nil {
		tex.Release()
		return nil, fmt.Errorf("texture %s: %s", id, err.Error())
	}
	return tex, nil
}

// Release destroys the command pool. Textures uploaded
// by the Uploader are not affected.
func (u *Uploader) Release() {
	vk.DestroyCommandPool(u.device, u.pool, nil)
}

// copyToImage records the layout transitions and the copy into a single
// command buffer and waits until the queue has executed it.
func (u *Uploader) copyToImage(buffer vk.Buffer, image vk.Image, extent gfx.Extent2D) error {
	cmd, err := u.beginSingleTimeCommands()
	if err != nil {
		return err
	}
	defer vk.FreeCommandBuffers(u.device, u.pool, 1, []vk.CommandBuffer{cmd})

	if err := cmdTransitionLayout(cmd, image, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal); err != nil {
		return err
	}

	bic := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  uint32(extent.Width),
			Height: uint32(extent.Height),
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cmd, buffer, image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{bic})

	if err := cmdTransitionLayout(cmd, image, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal); err != nil {
		return err
	}

	return u.endSingleTimeCommands(cmd)
}

func (u *Uploader) beginSingleTimeCommands() (vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        u.pool,
		CommandBufferCount: 1,
	}

	cmds := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(u.device, &cbai, cmds)); err != nil {
		return nil, fmt.Errorf("vk.AllocateCommandBuffers(): %s", err.Error())
	}

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmds[0], &cbbi)); err != nil {
		vk.FreeCommandBuffers(u.device, u.pool, 1, cmds)
		return nil, fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}
	return cmds[0], nil
}

func (u *Uploader) endSingleTimeCommands(cmd vk.CommandBuffer) error {
	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if err := vk.Error(vk.QueueSubmit(u.queue, 1, []vk.SubmitInfo{si}, nil)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %s", err.Error())
	}
	if err := vk.Error(vk.QueueWaitIdle(u.queue)); err != nil {
		return fmt.Errorf("vk.QueueWaitIdle(): %s", err.Error())
	}
	return nil
}
