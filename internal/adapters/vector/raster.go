package vector

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
)

// Canvas limits. Larger documents fail with ErrAllocation.
const (
	maxDimension = 1 << 14
	maxPixels    = 1 << 26
)

// Fonts supplies faces for text nodes by CSS font-family list.
type Fonts interface {
	FaceFor(family string, size float64) text.Face
}

// transform maps user space onto canvas pixels.
type transform struct {
	sx, sy, tx, ty float64
}

func newTransform(doc *Document) transform {
	t := transform{sx: 1, sy: 1}
	if vb := doc.ViewBox; vb != nil && vb.Width > 0 && vb.Height > 0 {
		t.sx = doc.Width / vb.Width
		t.sy = doc.Height / vb.Height
		t.tx = -vb.MinX
		t.ty = -vb.MinY
	}
	return t
}

func (t transform) point(x, y float64) (float64, float64) {
	return (x + t.tx) * t.sx, (y + t.ty) * t.sy
}

// CanvasSize returns the pixel size a document rasterizes to.
func CanvasSize(doc *Document) (int, int, error) {
	w, h := math.Ceil(doc.Width), math.Ceil(doc.Height)
	switch {
	case math.IsNaN(w) || math.IsNaN(h):
		return 0, 0, fmt.Errorf("%w: size is not a number", ErrAllocation)
	case w < 1 || h < 1:
		return 0, 0, fmt.Errorf("%w: %vx%v is empty", ErrAllocation, doc.Width, doc.Height)
	case w > maxDimension || h > maxDimension || w*h > maxPixels:
		return 0, 0, fmt.Errorf("%w: %vx%v is too large", ErrAllocation, doc.Width, doc.Height)
	}
	return int(w), int(h), nil
}

type raster struct {
	dc    *gg.Context
	fonts Fonts
	tr    transform
}

// Rasterize draws doc onto a fresh canvas sized to its intrinsic size.
//
// Images are sampled nearest-neighbour and text is drawn straight from the
// glyph cache; throughput matters more than fidelity for cards.
func Rasterize(doc *Document, fonts Fonts) (*image.RGBA, error) {
	w, h, err := CanvasSize(doc)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(w, h)
	defer func() { _ = dc.Close() }()

	r := &raster{dc: dc, fonts: fonts, tr: newTransform(doc)}
	for _, n := range doc.Nodes {
		if err := r.draw(n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRaster, err)
		}
	}

	img, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected canvas type %T", ErrRaster, dc.Image())
	}
	return img, nil
}

func (r *raster) draw(n Node) error {
	switch v := n.(type) {
	case *Rect:
		return r.paintShape(v.Style, func(dc *gg.Context) { r.rectPath(dc, v, 0, 0) })
	case *Circle:
		return r.paintShape(v.Style, func(dc *gg.Context) { r.circlePath(dc, v, 0, 0) })
	case *Text:
		r.text(v)
		return nil
	case *Image:
		return r.image(v)
	default:
		return fmt.Errorf("unsupported node %T", n)
	}
}

func (r *raster) rectPath(dc *gg.Context, v *Rect, ox, oy float64) {
	if v.Width <= 0 || v.Height <= 0 {
		return
	}
	x, y := r.tr.point(v.X, v.Y)
	w, h := v.Width*r.tr.sx, v.Height*r.tr.sy
	radius := math.Min(v.RX*r.tr.sx, v.RY*r.tr.sy)
	radius = math.Min(radius, math.Min(w, h)/2)
	if radius > 0 {
		dc.DrawRoundedRectangle(x-ox, y-oy, w, h, radius)
		return
	}
	dc.DrawRectangle(x-ox, y-oy, w, h)
}

func (r *raster) circlePath(dc *gg.Context, v *Circle, ox, oy float64) {
	if v.R <= 0 {
		return
	}
	x, y := r.tr.point(v.CX, v.CY)
	dc.DrawCircle(x-ox, y-oy, v.R*math.Min(r.tr.sx, r.tr.sy))
}

func (r *raster) paintShape(s Style, path func(*gg.Context)) error {
	if s.Opacity <= 0 {
		return nil
	}
	if p := s.Fill; p != nil && !p.None {
		path(r.dc)
		setColor(r.dc, p.Color, s.Opacity)
		if err := r.dc.Fill(); err != nil {
			return err
		}
	}
	if p := s.Stroke; p != nil && !p.None && s.StrokeWidth > 0 {
		path(r.dc)
		setColor(r.dc, p.Color, s.Opacity)
		r.dc.SetLineWidth(s.StrokeWidth * math.Min(r.tr.sx, r.tr.sy))
		if err := r.dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func setColor(dc *gg.Context, c color.NRGBA, opacity float64) {
	dc.SetRGBA(
		float64(c.R)/0xff,
		float64(c.G)/0xff,
		float64(c.B)/0xff,
		float64(c.A)/0xff*opacity,
	)
}

func (r *raster) text(v *Text) {
	s := v.Style
	if v.Content == "" || r.fonts == nil || s.Fill == nil || s.Fill.None || s.Opacity <= 0 || s.FontSize <= 0 {
		return
	}
	x, y := r.tr.point(v.X, v.Y)
	face := r.fonts.FaceFor(s.FontFamily, s.FontSize*r.tr.sy)
	if face == nil {
		return
	}
	r.dc.SetFont(face)
	setColor(r.dc, s.Fill.Color, s.Opacity)
	// SVG y is the baseline; an anchored draw places the top of the line
	// box at y, so lift it by the ascent.
	r.dc.DrawStringAnchored(v.Content, x, y-face.Metrics().Ascent, s.Anchor.factor(), 0)
}

// image scales the source into its box, then draws it either directly or
// through the clip shapes via an offscreen pattern fill.
func (r *raster) image(v *Image) error {
	if v.Style.Opacity <= 0 {
		return nil
	}
	x, y := r.tr.point(v.X, v.Y)
	bx, by := math.Round(x), math.Round(y)
	bw := int(math.Round(v.Width * r.tr.sx))
	bh := int(math.Round(v.Height * r.tr.sy))
	if bw <= 0 || bh <= 0 {
		return nil
	}

	box := gg.ImageBufFromImage(fitBox(v.Source, bw, bh, v.Aspect))

	if v.Clip == nil || len(v.Clip.Shapes) == 0 {
		r.dc.DrawImageEx(box, gg.DrawImageOptions{
			X:         bx,
			Y:         by,
			Opacity:   v.Style.Opacity,
			BlendMode: gg.BlendNormal,
		})
		return nil
	}

	off := gg.NewContext(bw, bh)
	defer func() { _ = off.Close() }()
	off.SetFillPattern(off.CreateImagePattern(box, 0, 0, bw, bh))
	for _, shape := range v.Clip.Shapes {
		switch s := shape.(type) {
		case *Circle:
			r.circlePath(off, s, bx, by)
		case *Rect:
			r.rectPath(off, s, bx, by)
		}
	}
	if err := off.Fill(); err != nil {
		return err
	}

	r.dc.DrawImageEx(gg.ImageBufFromImage(off.Image()), gg.DrawImageOptions{
		X:         bx,
		Y:         by,
		Opacity:   v.Style.Opacity,
		BlendMode: gg.BlendNormal,
	})
	return nil
}

// fitBox returns a bw x bh image holding src laid out per the aspect mode,
// centred, with transparent padding for meet.
func fitBox(src image.Image, bw, bh int, aspect AspectRatio) image.Image {
	switch aspect {
	case AspectNone:
		return imaging.Resize(src, bw, bh, imaging.NearestNeighbor)
	case AspectSlice:
		return imaging.Fill(src, bw, bh, imaging.Center, imaging.NearestNeighbor)
	}

	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	if sw == 0 || sh == 0 {
		return imaging.New(bw, bh, color.NRGBA{})
	}
	scale := math.Min(float64(bw)/float64(sw), float64(bh)/float64(sh))
	w := max(1, int(math.Round(float64(sw)*scale)))
	h := max(1, int(math.Round(float64(sh)*scale)))
	scaled := imaging.Resize(src, w, h, imaging.NearestNeighbor)
	return imaging.PasteCenter(imaging.New(bw, bh, color.NRGBA{}), scaled)
}
