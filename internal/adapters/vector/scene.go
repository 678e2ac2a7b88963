// Package vector parses the SVG subset used by rank cards into a scene and
// rasterizes that scene with gg.
//
// Supported: the svg root (width, height, viewBox), g, rect, circle, text,
// image and clipPath inside defs. Presentation attributes on g are inherited.
// Anything else is skipped together with its children.
package vector

import (
	"image"
	"image/color"
)

// Document is a parsed card document.
type Document struct {
	// Width and Height are the intrinsic size in pixels.
	Width, Height float64
	// ViewBox maps user space onto the intrinsic size. Nil means identity.
	ViewBox *ViewBox
	Nodes   []Node
}

// ViewBox is the user space rectangle of the document.
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// Node is a drawable scene element.
type Node interface {
	node()
}

// Paint is a fill or stroke. A nil *Paint in Style inherits from the parent.
type Paint struct {
	Color color.NRGBA
	None  bool
}

// Style holds the resolved presentation attributes of a node.
type Style struct {
	Fill        *Paint
	Stroke      *Paint
	StrokeWidth float64
	Opacity     float64
	FontFamily  string
	FontSize    float64
	Anchor      Anchor
}

// Anchor is the text-anchor value.
type Anchor uint8

// Text anchors.
const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// factor returns the horizontal anchor fraction used by gg.
func (a Anchor) factor() float64 {
	switch a {
	case AnchorMiddle:
		return 0.5
	case AnchorEnd:
		return 1
	default:
		return 0
	}
}

// Rect is a possibly rounded rectangle.
type Rect struct {
	X, Y, Width, Height float64
	RX, RY              float64
	Style               Style
}

// Circle is a circle.
type Circle struct {
	CX, CY, R float64
	Style     Style
}

// Text is a single run of text positioned at its baseline.
type Text struct {
	X, Y    float64
	Content string
	Style   Style
}

// AspectRatio is the preserveAspectRatio mode of an image. Only the
// xMidYMid alignment is supported.
type AspectRatio uint8

// Aspect ratio modes.
const (
	AspectMeet AspectRatio = iota
	AspectSlice
	AspectNone
)

// Image is a raster placed into a box, optionally clipped.
type Image struct {
	X, Y, Width, Height float64
	Source              image.Image
	Aspect              AspectRatio
	Clip                *ClipPath
	Style               Style
}

// ClipPath is a set of shapes whose union limits drawing.
type ClipPath struct {
	ID     string
	Shapes []Node
}

func (*Rect) node()   {}
func (*Circle) node() {}
func (*Text) node()   {}
func (*Image) node()  {}
