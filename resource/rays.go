package resource

import "context"

// WaitRays blocks until the throughput limit admits n more rays or ctx is
// done.
func (c *Controller) WaitRays(ctx context.Context, n int) error {
	if c == nil || c.rays == nil {
		return nil
	}
	return c.rays.WaitN(ctx, n)
}

// RaysPerSecond returns the throughput cap, or 0 when unlimited.
func (c *Controller) RaysPerSecond() float64 {
	if c == nil || c.rays == nil {
		return 0
	}
	return float64(c.rays.Limit())
}
