package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/binzume/bvhkit/bvh"
	"github.com/binzume/bvhkit/geom"
	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

type View int

const (
	ViewFront View = iota // X-Y
	ViewSide              // Z-Y
	ViewTop               // X-Z
)

func ParseView(s string) (View, bool) {
	switch s {
	case "front":
		return ViewFront, true
	case "side":
		return ViewSide, true
	case "top":
		return ViewTop, true
	}
	return ViewFront, false
}

func (v View) project(p *geom.Vector3) (float32, float32) {
	switch v {
	case ViewSide:
		return p.Z, p.Y
	case ViewTop:
		return p.X, -p.Z
	}
	return p.X, p.Y
}

// Bounds is a rectangle in projected model space.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float32
}

func (b *Bounds) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b *Bounds) add(x, y float32) {
	b.MinX = geom.Min(b.MinX, x)
	b.MinY = geom.Min(b.MinY, y)
	b.MaxX = geom.Max(b.MaxX, x)
	b.MaxY = geom.Max(b.MaxY, y)
}

func (b *Bounds) Union(o *Bounds) {
	if o.Empty() {
		return
	}
	b.add(o.MinX, o.MinY)
	b.add(o.MaxX, o.MaxY)
}

func emptyBounds() *Bounds {
	return &Bounds{MinX: math.MaxFloat32, MinY: math.MaxFloat32, MaxX: -math.MaxFloat32, MaxY: -math.MaxFloat32}
}

// PoseBounds returns the projected extent of all joints and end sites.
func PoseBounds(pose *bvh.Pose, view View) *Bounds {
	b := emptyBounds()
	for _, j := range pose.Joints() {
		b.add(view.project(j.PositionWorld))
		if j.EndSiteWorld != nil {
			b.add(view.project(j.EndSiteWorld))
		}
	}
	return b
}

type Options struct {
	Width       int
	Height      int
	View        View
	Supersample int

	Background color.NRGBA
	BoneColor  color.NRGBA
	JointColor color.NRGBA

	// in output pixels.
	LineWidth   float32
	JointRadius float32
	Margin      float32

	// Fixed model space extent. Computed from the pose if nil.
	Bounds *Bounds
}

func DefaultOptions() *Options {
	return &Options{
		Width:       512,
		Height:      512,
		View:        ViewFront,
		Supersample: 4,
		Background:  color.NRGBA{R: 32, G: 32, B: 40, A: 255},
		BoneColor:   color.NRGBA{R: 220, G: 220, B: 220, A: 255},
		JointColor:  color.NRGBA{R: 255, G: 96, B: 64, A: 255},
		LineWidth:   2,
		JointRadius: 3,
		Margin:      16,
	}
}

func (o *Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid image size: %dx%d", o.Width, o.Height)
	}
	return nil
}

type projection struct {
	view   View
	scale  float32
	cx, cy float32
	ox, oy float32
}

func newProjection(b *Bounds, view View, w, h int, margin float32) *projection {
	bw := b.MaxX - b.MinX
	bh := b.MaxY - b.MinY
	aw := float32(w) - margin*2
	ah := float32(h) - margin*2
	scale := float32(1)
	if bw > 0 || bh > 0 {
		scale = geom.Min(aw/geom.Max(bw, 1e-6), ah/geom.Max(bh, 1e-6))
	}
	return &projection{
		view:  view,
		scale: scale,
		cx:    (b.MinX + b.MaxX) / 2,
		cy:    (b.MinY + b.MaxY) / 2,
		ox:    float32(w) / 2,
		oy:    float32(h) / 2,
	}
}

// apply maps model space to image space. Image Y grows downward.
func (p *projection) apply(v *geom.Vector3) (float32, float32) {
	x, y := p.view.project(v)
	return p.ox + (x-p.cx)*p.scale, p.oy - (y-p.cy)*p.scale
}

func addLine(z *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	z.MoveTo(x0+nx, y0+ny)
	z.LineTo(x1+nx, y1+ny)
	z.LineTo(x1-nx, y1-ny)
	z.LineTo(x0-nx, y0-ny)
	z.ClosePath()
}

func addCircle(z *vector.Rasterizer, cx, cy, r float32) {
	const segments = 24
	z.MoveTo(cx+r, cy)
	for i := 1; i < segments; i++ {
		a := float64(i) * 2 * math.Pi / segments
		z.LineTo(cx+r*float32(math.Cos(a)), cy+r*float32(math.Sin(a)))
	}
	z.ClosePath()
}

func fill(dst *image.RGBA, z *vector.Rasterizer, c color.NRGBA) {
	z.DrawOp = draw.Over
	z.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// Render draws the skeleton of pose as an orthographic projection.
func Render(pose *bvh.Pose, opt *Options) *image.NRGBA {
	if opt == nil {
		opt = DefaultOptions()
	}
	ss := opt.Supersample
	if ss < 1 {
		ss = 1
	}
	w, h := opt.Width*ss, opt.Height*ss
	fs := float32(ss)

	b := opt.Bounds
	if b == nil {
		b = PoseBounds(pose, opt.View)
	}
	if b.Empty() {
		b = &Bounds{}
	}
	proj := newProjection(b, opt.View, w, h, opt.Margin*fs)

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opt.Background), image.Point{}, draw.Src)

	z := vector.NewRasterizer(w, h)
	for _, j := range pose.Joints() {
		x0, y0 := proj.apply(j.PositionWorld)
		for _, c := range j.Children {
			x1, y1 := proj.apply(c.PositionWorld)
			addLine(z, x0, y0, x1, y1, opt.LineWidth*fs)
		}
		if j.EndSiteWorld != nil {
			x1, y1 := proj.apply(j.EndSiteWorld)
			addLine(z, x0, y0, x1, y1, opt.LineWidth*fs)
		}
	}
	fill(canvas, z, opt.BoneColor)

	if opt.JointRadius > 0 {
		z.Reset(w, h)
		for _, j := range pose.Joints() {
			x, y := proj.apply(j.PositionWorld)
			addCircle(z, x, y, opt.JointRadius*fs)
		}
		fill(canvas, z, opt.JointColor)
	}

	return downsample(canvas, opt.Width, opt.Height)
}

func downsample(src *image.RGBA, w, h int) *image.NRGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		draw.Copy(dst, image.Point{}, src, src.Bounds(), draw.Src, nil)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}
	result := image.NewNRGBA(dst.Bounds())
	draw.Draw(result, result.Bounds(), dst, image.Point{}, draw.Src)
	return result
}
