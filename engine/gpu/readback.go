package gpu

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

func (c *gpuContext) ReadOutput(ctx context.Context) (*common.ImageData, error) {
	if c.output == nil {
		return nil, ErrNoOutput
	}
	size := c.output.GetSize()

	encoder, err := c.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()
	if err := encoder.CopyBufferToBuffer(c.output, 0, c.staging, 0, size); err != nil {
		return nil, fmt.Errorf("copy output: %w", err)
	}
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	defer commandBuffer.Release()
	c.queue.Submit(commandBuffer)

	mapped := false
	var status wgpu.BufferMapAsyncStatus
	err = c.staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		mapped = true
	})
	if err != nil {
		return nil, fmt.Errorf("map readback buffer: %w", err)
	}
	for !mapped {
		c.device.Poll(false, nil)
		if err := ctx.Err(); err != nil && !mapped {
			// the pending map still completes on a later poll; keep the buffer usable by waiting it out
			c.device.Poll(true, nil)
			if status == wgpu.BufferMapAsyncStatusSuccess {
				c.staging.Unmap()
			}
			return nil, err
		}
		runtime.Gosched()
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("readback status %v: %w", status, ErrMapFailed)
	}

	pixels := make([]byte, size)
	copy(pixels, c.staging.GetMappedRange(0, uint(size)))
	c.staging.Unmap()

	return &common.ImageData{Pixels: pixels, Width: c.width, Height: c.height}, nil
}
