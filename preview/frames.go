package preview

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/binzume/bvhkit/bvh"
	"golang.org/x/sync/errgroup"
)

// FrameRange is a half-open range of frames [Start, End).
type FrameRange struct {
	Start, End int
}

func (r FrameRange) Len() int {
	return r.End - r.Start
}

// ParseFrameRange parses "a:b". An empty end means the last frame.
func ParseFrameRange(s string, frames int) (FrameRange, error) {
	r := FrameRange{Start: 0, End: frames}
	start, end, ok := strings.Cut(s, ":")
	if !ok {
		return r, fmt.Errorf("invalid frame range: %q", s)
	}
	var err error
	if start != "" {
		if r.Start, err = strconv.Atoi(start); err != nil {
			return r, fmt.Errorf("invalid frame range: %q", s)
		}
	}
	if end != "" {
		if r.End, err = strconv.Atoi(end); err != nil {
			return r, fmt.Errorf("invalid frame range: %q", s)
		}
	}
	if r.Start < 0 || r.End > frames || r.Start >= r.End {
		return r, fmt.Errorf("frame range %d:%d out of 0:%d", r.Start, r.End, frames)
	}
	return r, nil
}

// RenderFrames renders every frame in r with at most workers goroutines.
// fn is called concurrently with the frame number and the rendered image.
func RenderFrames(ctx context.Context, h *bvh.Hierarchy, r FrameRange, opt *Options, workers int, fn func(frame int, img *image.NRGBA) error) error {
	if opt == nil {
		opt = DefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return err
	}
	if r.Start < 0 || r.End > len(h.Motion) || r.Start >= r.End {
		return fmt.Errorf("frame range %d:%d out of 0:%d", r.Start, r.End, len(h.Motion))
	}

	// Same extent for all frames.
	frameOpt := *opt
	if frameOpt.Bounds == nil {
		b := emptyBounds()
		for f := r.Start; f < r.End; f++ {
			pose, err := h.LoadPose(f)
			if err != nil {
				return err
			}
			b.Union(PoseBounds(pose, opt.View))
		}
		frameOpt.Bounds = b
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for f := r.Start; f < r.End; f++ {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pose, err := h.LoadPose(f)
			if err != nil {
				return err
			}
			if err := fn(f, Render(pose, &frameOpt)); err != nil {
				return fmt.Errorf("frame %d: %w", f, err)
			}
			return nil
		})
	}
	return g.Wait()
}
