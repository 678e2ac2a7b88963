package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/smartystreets/goconvey/convey"
)

func TestBuildContext(t *testing.T) {
	convey.Convey("Given command line values", t, func() {
		convey.Convey("Then a card context is assembled", func() {
			c, err := buildContext(3255, 4, "alice", "0", "bold", "fox", "")
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Font, convey.ShouldEqual, assets.FontBold)
			convey.So(c.Toy, convey.ShouldEqual, assets.ToyFox)
			convey.So(c.Level, convey.ShouldEqual, levels.NewInfo(3255).Level())
			convey.So(c.Rank, convey.ShouldEqual, 4)
			convey.So(c.Avatar, convey.ShouldBeEmpty)
		})

		convey.Convey("And an avatar file becomes a data uri", func() {
			var buf bytes.Buffer
			convey.So(png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))), convey.ShouldBeNil)
			path := filepath.Join(t.TempDir(), "a.png")
			convey.So(os.WriteFile(path, buf.Bytes(), 0o600), convey.ShouldBeNil)

			c, err := buildContext(10, 1, "bob", "1234", "regular", "none", path)
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.Avatar, convey.ShouldStartWith, "data:image/png;base64,")
		})

		convey.Convey("And unknown names are rejected", func() {
			_, err := buildContext(10, 1, "bob", "0", "comic sans", "none", "")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = buildContext(10, 1, "bob", "0", "regular", "dragon", "")
			convey.So(err, convey.ShouldNotBeNil)
			_, err = buildContext(10, 1, "bob", "0", "regular", "none", "/does/not/exist.png")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
