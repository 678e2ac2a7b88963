package vector_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/gogpu/gg/text"
	"github.com/okian/levelcard/internal/adapters/vector"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/image/font/gofont/goregular"
)

type goFonts struct{ src *text.FontSource }

func (f goFonts) FaceFor(_ string, size float64) text.Face { return f.src.Face(size) }

func newFonts() goFonts {
	src, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		panic(err)
	}
	return goFonts{src: src}
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func dataURI(mime string, img image.Image, pad bool) string {
	var buf bytes.Buffer
	if mime == "image/jpeg" {
		_ = jpeg.Encode(&buf, img, nil)
	} else {
		_ = png.Encode(&buf, img)
	}
	enc := base64.StdEncoding
	if !pad {
		enc = base64.RawStdEncoding
	}
	return "data:" + mime + ";base64," + enc.EncodeToString(buf.Bytes())
}

func rgba(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestParse(t *testing.T) {
	Convey("Given a card-like document", t, func() {
		doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100">
  <defs>
    <rect width="5" height="5"/>
  </defs>
  <g fill="#ff0000" font-family="Go Mono" font-size="20">
    <rect x="1" y="2" width="30" height="40" rx="4"/>
    <text x="10" y="50" text-anchor="end">  Hello   &amp; <tspan>world</tspan> </text>
    <circle cx="50" cy="50" r="10" fill="none" stroke="rgb(0, 255, 0)" stroke-width="2"/>
  </g>
  <image x="0" y="0" width="10" height="10" clip-path="url(#later)" href="toy.png"/>
  <unknown><rect width="1" height="1"/></unknown>
  <clipPath id="later"><circle cx="5" cy="5" r="5"/></clipPath>
</svg>`)
		sprite := solid(4, 4, color.NRGBA{B: 0xff, A: 0xff})
		resolver := vector.ResolverFunc(func(href string) (image.Image, bool) {
			return sprite, href == "toy.png"
		})

		scene, err := vector.Parse(doc, resolver)
		So(err, ShouldBeNil)

		Convey("Then the intrinsic size is read from the root", func() {
			So(scene.Width, ShouldEqual, 200)
			So(scene.Height, ShouldEqual, 100)
			So(scene.ViewBox, ShouldBeNil)
		})

		Convey("Then defs and unknown elements are not drawn", func() {
			So(len(scene.Nodes), ShouldEqual, 4)
		})

		Convey("Then group attributes are inherited", func() {
			rect, ok := scene.Nodes[0].(*vector.Rect)
			So(ok, ShouldBeTrue)
			So(rect.Style.Fill.Color, ShouldResemble, color.NRGBA{R: 0xff, A: 0xff})
			So(rect.RX, ShouldEqual, 4)
			So(rect.RY, ShouldEqual, 4)

			txt, ok := scene.Nodes[1].(*vector.Text)
			So(ok, ShouldBeTrue)
			So(txt.Content, ShouldEqual, "Hello & world")
			So(txt.Style.FontFamily, ShouldEqual, "Go Mono")
			So(txt.Style.FontSize, ShouldEqual, 20)
			So(txt.Style.Anchor, ShouldEqual, vector.AnchorEnd)

			circle, ok := scene.Nodes[2].(*vector.Circle)
			So(ok, ShouldBeTrue)
			So(circle.Style.Fill.None, ShouldBeTrue)
			So(circle.Style.Stroke.Color, ShouldResemble, color.NRGBA{G: 0xff, A: 0xff})
		})

		Convey("Then images resolve and pick up clip paths defined later", func() {
			img, ok := scene.Nodes[3].(*vector.Image)
			So(ok, ShouldBeTrue)
			So(img.Source, ShouldEqual, sprite)
			So(img.Clip, ShouldNotBeNil)
			So(len(img.Clip.Shapes), ShouldEqual, 1)
		})
	})

	Convey("Given a document with only a viewBox", t, func() {
		scene, err := vector.Parse([]byte(`<svg viewBox="0 0 30 20"></svg>`), nil)

		Convey("Then the size comes from the viewBox", func() {
			So(err, ShouldBeNil)
			So(scene.Width, ShouldEqual, 30)
			So(scene.Height, ShouldEqual, 20)
		})
	})

	Convey("Given an image nobody can resolve", t, func() {
		scene, err := vector.Parse([]byte(`<svg width="1" height="1"><image width="1" height="1" href="data:image/gif;base64,R0lGOD"/></svg>`), vector.DataURI)

		Convey("Then it is left out without an error", func() {
			So(err, ShouldBeNil)
			So(scene.Nodes, ShouldBeEmpty)
		})
	})

	Convey("Given structurally invalid documents", t, func() {
		cases := []struct {
			doc  string
			want error
		}{
			{"", vector.ErrNoRoot},
			{"<html></html>", vector.ErrNoRoot},
			{"<svg width=\"10\" height=\"10\"><rect></svg>", vector.ErrSyntax},
			{"<svg width=\"10\" height=\"10\">", vector.ErrSyntax},
			{"<svg></svg>", vector.ErrNoSize},
			{"<svg width=\"ten\" height=\"10\"></svg>", vector.ErrInvalidAttribute},
			{"<svg width=\"10\" height=\"10\"><rect fill=\"#12\"/></svg>", vector.ErrInvalidAttribute},
			{"<svg width=\"10\" height=\"10\"><text text-anchor=\"left\">x</text></svg>", vector.ErrInvalidAttribute},
			{"<svg width=\"10\" height=\"10\" viewBox=\"0 0 1\"></svg>", vector.ErrInvalidAttribute},
		}

		Convey("Then each yields its typed error", func() {
			for _, c := range cases {
				_, err := vector.Parse([]byte(c.doc), nil)
				So(errors.Is(err, c.want), ShouldBeTrue)
			}
		})
	})
}

func TestDataURI(t *testing.T) {
	Convey("Given embedded image data", t, func() {
		img := solid(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff})

		Convey("Then padded and unpadded PNG payloads decode", func() {
			for _, pad := range []bool{true, false} {
				got, ok := vector.DataURI.Resolve(dataURI("image/png", img, pad))
				So(ok, ShouldBeTrue)
				So(got.Bounds().Dx(), ShouldEqual, 3)
				So(got.Bounds().Dy(), ShouldEqual, 2)
			}
		})

		Convey("Then JPEG payloads decode under both mime spellings", func() {
			uri := dataURI("image/jpeg", img, true)
			_, ok := vector.DataURI.Resolve(uri)
			So(ok, ShouldBeTrue)
			_, ok = vector.DataURI.Resolve("data:image/jpg" + uri[len("data:image/jpeg"):])
			So(ok, ShouldBeTrue)
		})

		Convey("Then unsupported or broken payloads stay unresolved", func() {
			for _, href := range []string{
				"toy.png",
				"data:image/gif;base64,R0lGODlhAQABAAAAACw=",
				"data:image/png,notbase64",
				"data:image/png;base64,!!!!",
				"data:image/png;base64,aGVsbG8=",
				"data:image/png;base64",
			} {
				_, ok := vector.DataURI.Resolve(href)
				So(ok, ShouldBeFalse)
			}
		})

		Convey("Then a chain falls through to the next resolver", func() {
			named := vector.ResolverFunc(func(href string) (image.Image, bool) { return img, href == "toy.png" })
			chain := vector.Chain{vector.DataURI, nil, named}
			_, ok := chain.Resolve("toy.png")
			So(ok, ShouldBeTrue)
			_, ok = chain.Resolve("other.png")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestRasterize(t *testing.T) {
	fonts := newFonts()

	Convey("Given a document with filled shapes", t, func() {
		doc, err := vector.Parse([]byte(`<svg width="100" height="60">
  <rect x="0" y="0" width="100" height="60" fill="#ffffff"/>
  <rect x="10" y="10" width="30" height="30" rx="5" fill="#ff0000"/>
  <circle cx="75" cy="30" r="15" fill="#0000ff"/>
</svg>`), nil)
		So(err, ShouldBeNil)

		img, err := vector.Rasterize(doc, fonts)
		So(err, ShouldBeNil)

		Convey("Then the canvas is the intrinsic size", func() {
			So(img.Bounds().Dx(), ShouldEqual, 100)
			So(img.Bounds().Dy(), ShouldEqual, 60)
		})

		Convey("Then shape interiors carry their fill", func() {
			red := rgba(img, 25, 25)
			So(red.R, ShouldBeGreaterThan, 250)
			So(red.G, ShouldBeLessThan, 5)

			blue := rgba(img, 75, 30)
			So(blue.B, ShouldBeGreaterThan, 250)
			So(blue.R, ShouldBeLessThan, 5)

			white := rgba(img, 55, 5)
			So(white.R, ShouldBeGreaterThan, 250)
			So(white.B, ShouldBeGreaterThan, 250)
		})
	})

	Convey("Given a viewBox smaller than the canvas", t, func() {
		doc, err := vector.Parse([]byte(`<svg width="200" height="200" viewBox="0 0 100 100"><rect width="50" height="50" fill="#ff0000"/></svg>`), nil)
		So(err, ShouldBeNil)
		img, err := vector.Rasterize(doc, fonts)
		So(err, ShouldBeNil)

		Convey("Then user space is scaled onto the canvas", func() {
			So(rgba(img, 90, 90).R, ShouldBeGreaterThan, 250)
			So(rgba(img, 150, 150).A, ShouldEqual, 0)
		})
	})

	Convey("Given an image clipped to a circle", t, func() {
		green := solid(8, 8, color.NRGBA{G: 0xff, A: 0xff})
		resolver := vector.ResolverFunc(func(string) (image.Image, bool) { return green, true })
		doc, err := vector.Parse([]byte(`<svg width="100" height="100">
  <defs><clipPath id="c"><circle cx="50" cy="50" r="40"/></clipPath></defs>
  <image x="10" y="10" width="80" height="80" preserveAspectRatio="xMidYMid slice" clip-path="url(#c)" href="x"/>
</svg>`), resolver)
		So(err, ShouldBeNil)
		img, err := vector.Rasterize(doc, fonts)
		So(err, ShouldBeNil)

		Convey("Then only the inside of the circle is painted", func() {
			So(rgba(img, 50, 50).G, ShouldBeGreaterThan, 250)
			So(rgba(img, 12, 12).A, ShouldEqual, 0)
			So(rgba(img, 5, 50).A, ShouldEqual, 0)
		})
	})

	Convey("Given an unclipped image that does not fill its box", t, func() {
		wide := solid(20, 10, color.NRGBA{R: 0xff, A: 0xff})
		resolver := vector.ResolverFunc(func(string) (image.Image, bool) { return wide, true })
		doc, err := vector.Parse([]byte(`<svg width="40" height="40"><image width="40" height="40" href="x"/></svg>`), resolver)
		So(err, ShouldBeNil)
		img, err := vector.Rasterize(doc, fonts)
		So(err, ShouldBeNil)

		Convey("Then it is centred with transparent padding", func() {
			So(rgba(img, 20, 20).R, ShouldBeGreaterThan, 250)
			So(rgba(img, 20, 2).A, ShouldEqual, 0)
		})
	})

	Convey("Given text with a baseline at y=100", t, func() {
		doc, err := vector.Parse([]byte(`<svg width="200" height="160"><text x="10" y="100" font-size="40" fill="#000000">HHH</text></svg>`), nil)
		So(err, ShouldBeNil)
		img, err := vector.Rasterize(doc, fonts)
		So(err, ShouldBeNil)

		top, bottom := -1, -1
		for y := 0; y < 160; y++ {
			for x := 0; x < 200; x++ {
				if img.RGBAAt(x, y).A > 0x40 {
					if top < 0 {
						top = y
					}
					bottom = y
					break
				}
			}
		}

		Convey("Then capital glyphs sit on the baseline", func() {
			So(top, ShouldBeGreaterThanOrEqualTo, 0)
			So(bottom, ShouldBeBetweenOrEqual, 96, 100)
		})

		Convey("Then they rise by roughly the cap height", func() {
			So(bottom-top, ShouldBeBetweenOrEqual, 22, 34)
			So(top, ShouldBeLessThan, 80)
		})
	})

	Convey("Given middle-anchored text", t, func() {
		doc, err := vector.Parse([]byte(`<svg width="200" height="60"><text x="100" y="40" font-size="32" text-anchor="middle" fill="#000000">LEVEL 13</text></svg>`), nil)
		So(err, ShouldBeNil)
		img, err := vector.Rasterize(doc, fonts)
		So(err, ShouldBeNil)

		Convey("Then glyphs are painted on both sides of x and above y", func() {
			left, right, below := 0, 0, 0
			for y := 0; y < 60; y++ {
				for x := 0; x < 200; x++ {
					if img.RGBAAt(x, y).A == 0 {
						continue
					}
					switch {
					case y > 41:
						below++
					case x < 100:
						left++
					default:
						right++
					}
				}
			}
			So(left, ShouldBeGreaterThan, 20)
			So(right, ShouldBeGreaterThan, 20)
			So(below, ShouldEqual, 0)
		})
	})

	Convey("Given documents that cannot be allocated", t, func() {
		Convey("Then empty and oversized canvases are allocation errors", func() {
			for _, d := range []string{
				`<svg width="0" height="10"></svg>`,
				`<svg width="10" height="-3"></svg>`,
				`<svg width="100000" height="100000"></svg>`,
			} {
				doc, err := vector.Parse([]byte(d), nil)
				So(err, ShouldBeNil)
				_, err = vector.Rasterize(doc, fonts)
				So(errors.Is(err, vector.ErrAllocation), ShouldBeTrue)
			}
		})
	})
}
