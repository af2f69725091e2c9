// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"
)

// transition holds the access masks and pipeline stages
// of an image layout change.
type transition struct {
	srcAccess, dstAccess vk.AccessFlags
	srcStage, dstStage   vk.PipelineStageFlags
}

func layoutTransition(oldLayout, newLayout vk.ImageLayout) (transition, error) {
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return transition{
			srcAccess: 0,
			dstAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return transition{
			srcAccess: vk.AccessFlags(vk.AccessTransferWriteBit),
			dstAccess: vk.AccessFlags(vk.AccessShaderReadBit),
			srcStage:  vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			dstStage:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		}, nil
	}
	return transition{}, fmt.Errorf("unsupported layout transition: %d -> %d", oldLayout, newLayout)
}

func cmdTransitionLayout(cmd vk.CommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout) error {
	t, err := layoutTransition(oldLayout, newLayout)
	if err != nil {
		return err
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    colorSubresourceRange(),
		SrcAccessMask:       t.srcAccess,
		DstAccessMask:       t.dstAccess,
	}

	vk.CmdPipelineBarrier(cmd, t.srcStage, t.dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	return nil
}
