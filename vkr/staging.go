// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	"github.com/devblok/texbag/texture"
	vk "github.com/devblok/vulkan"
)

// stagingBuffer is a host visible transfer source holding
// tightly packed pixel rows.
type stagingBuffer struct {
	device vk.Device
	buffer vk.Buffer
	mem    *Allocation
}

func newStagingBuffer(dev vk.Device, alloc *Allocator, p *texture.Pixels) (*stagingBuffer, error) {
	bci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(4 * p.Width * p.Height),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev, &bci, nil, &buffer)); err != nil {
		return nil, fmt.Errorf("vk.CreateBuffer(): %s", err.Error())
	}
	sb := &stagingBuffer{device: dev, buffer: buffer}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &req)
	req.Deref()

	mem, err := alloc.Alloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		sb.release()
		return nil, err
	}
	sb.mem = mem
	if err := vk.Error(vk.BindBufferMemory(dev, buffer, sb.mem.memory, 0)); err != nil {
		sb.release()
		return nil, fmt.Errorf("vk.BindBufferMemory(): %s", err.Error())
	}

	mapped, err := sb.mem.Map()
	if err != nil {
		sb.release()
		return nil, err
	}
	packRows(mapped, p)
	sb.mem.Unmap()

	return sb, nil
}

func (sb *stagingBuffer) release() {
	vk.DestroyBuffer(sb.device, sb.buffer, nil)
	if sb.mem != nil {
		sb.mem.Free()
	}
}

// packRows copies the rows of p into dst without any row padding.
func packRows(dst []uint8, p *texture.Pixels) {
	rowLen := 4 * p.Width
	for y := 0; y < p.Height; y++ {
		copy(dst[y*rowLen:(y+1)*rowLen], p.Row(y))
	}
}
