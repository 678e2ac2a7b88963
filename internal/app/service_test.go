package service_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"testing"

	service "github.com/okian/levelcard/internal/app"
	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/okian/levelcard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const tinyAvatar = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func sampleContext(xp uint64, name string) card.Context {
	return card.NewContext(levels.NewInfo(xp), 3, name, "0001", card.DefaultCustomization(), tinyAvatar)
}

func startRenderer(opts ...service.Option) *service.Renderer {
	r := service.New(opts...)
	So(r.Start(context.Background()), ShouldBeNil)
	return r
}

func TestRenderer_Lifecycle(t *testing.T) {
	Convey("Given a new renderer", t, func() {
		r := service.New(service.WithWorkerCount(2), service.WithQueueSize(8))

		Convey("Then it reports its configuration before starting", func() {
			stats := r.GetStats()
			So(stats["started"], ShouldBeFalse)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 8)
		})

		Convey("When rendering before Start", func() {
			_, err := r.Render(context.Background(), sampleContext(3255, "early"))

			Convey("Then the worker is reported lost", func() {
				So(errors.Is(err, service.ErrWorkerLost), ShouldBeTrue)
			})
		})

		Convey("When started and stopped", func() {
			So(r.Start(context.Background()), ShouldBeNil)
			So(r.Start(context.Background()), ShouldBeNil)
			So(r.GetStats()["started"], ShouldBeTrue)
			r.Stop()
			r.Stop()

			Convey("Then later renders fail with ErrWorkerLost", func() {
				_, err := r.Render(context.Background(), sampleContext(3255, "late"))
				So(errors.Is(err, service.ErrWorkerLost), ShouldBeTrue)
				So(r.GetStats()["started"], ShouldBeFalse)
			})
		})
	})

	Convey("Given pool sizes below one", t, func() {
		cases := []service.Option{service.WithWorkerCount(0), service.WithQueueSize(0), service.WithWorkerCount(-3)}

		Convey("Then Start fails with ErrPoolInit", func() {
			for _, opt := range cases {
				err := service.New(opt).Start(context.Background())
				So(errors.Is(err, service.ErrPoolInit), ShouldBeTrue)
			}
		})
	})
}

// panickyPipeline panics for the name "boom" and echoes the name otherwise.
type panickyPipeline struct{}

func (panickyPipeline) Render(_ context.Context, c card.Context) ([]byte, error) {
	if c.Name == "boom" {
		panic("rasterizer exploded")
	}
	return []byte(c.Name), nil
}

func TestRenderer_WorkerPanic(t *testing.T) {
	Convey("Given a renderer whose pipeline panics mid-render", t, func() {
		r := startRenderer(
			service.WithWorkerCount(1),
			service.WithQueueSize(4),
			service.WithPipeline(panickyPipeline{}),
		)
		defer r.Stop()

		Convey("When the panicking job is rendered", func() {
			_, err := r.Render(context.Background(), sampleContext(3255, "boom"))

			Convey("Then the caller sees ErrWorkerLost", func() {
				So(errors.Is(err, service.ErrWorkerLost), ShouldBeTrue)
			})

			Convey("Then the worker keeps serving later renders", func() {
				out, err := r.Render(context.Background(), sampleContext(3255, "after"))
				So(err, ShouldBeNil)
				So(string(out), ShouldEqual, "after")
			})
		})
	})
}

func TestRenderer_Render(t *testing.T) {
	Convey("Given a running renderer with shared assets", t, func() {
		reg := assets.MustLoad()
		r := startRenderer(
			service.WithWorkerCount(2),
			service.WithAssets(reg),
			service.WithTemplates(card.MustStore()),
		)
		defer r.Stop()
		ctx := context.Background()

		Convey("When rendering a card", func() {
			out, err := r.Render(ctx, sampleContext(3255, "Testy McTestington"))

			Convey("Then the result is a PNG of the card size", func() {
				So(err, ShouldBeNil)
				img, err := png.Decode(bytes.NewReader(out))
				So(err, ShouldBeNil)
				So(img.Bounds().Dx(), ShouldEqual, 1000)
				So(img.Bounds().Dy(), ShouldEqual, 300)
			})
		})

		Convey("When rendering every font with every toy", func() {
			failures := 0
			for _, f := range assets.AllFonts() {
				for _, toy := range assets.AllToys() {
					c := sampleContext(81, "variant")
					c.Font, c.Toy = f, toy
					if _, err := r.Render(ctx, c); err != nil {
						failures++
					}
				}
			}

			Convey("Then all of them succeed", func() {
				So(failures, ShouldEqual, 0)
			})
		})

		Convey("When rendering the same context twice", func() {
			c := sampleContext(12_345_678, "same")
			first, err1 := r.Render(ctx, c)
			second, err2 := r.Render(ctx, c)

			Convey("Then the bytes are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(bytes.Equal(first, second), ShouldBeTrue)
			})
		})

		Convey("When rendering without an avatar and at zero XP", func() {
			c := sampleContext(0, "nobody")
			c.Avatar = ""
			_, err := r.Render(ctx, c)

			Convey("Then it still succeeds", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When cosmetics fall outside the asset set", func() {
			badFont := sampleContext(3255, "x")
			badFont.Font = assets.Font(99)
			badToy := sampleContext(3255, "x")
			badToy.Toy = assets.Toy(99)
			badColor := sampleContext(3255, "x")
			badColor.Colors.Border = "zzzzzz"

			_, errFont := r.Render(ctx, badFont)
			_, errToy := r.Render(ctx, badToy)
			_, errColor := r.Render(ctx, badColor)

			Convey("Then each is a template failure carrying its cause", func() {
				So(errors.Is(errFont, service.ErrTemplate), ShouldBeTrue)
				So(errors.Is(errFont, card.ErrInvalidFont), ShouldBeTrue)
				So(errors.Is(errToy, service.ErrTemplate), ShouldBeTrue)
				So(errors.Is(errToy, card.ErrInvalidToy), ShouldBeTrue)
				So(errors.Is(errColor, service.ErrTemplate), ShouldBeTrue)
			})

			Convey("And the renderer keeps working", func() {
				_, err := r.Render(ctx, sampleContext(3255, "after"))
				So(err, ShouldBeNil)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := r.Render(cancelled, sampleContext(3255, "gone"))

			Convey("Then the context error is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestRenderer_Concurrency(t *testing.T) {
	Convey("Given a renderer shared by many callers", t, func() {
		r := startRenderer(service.WithWorkerCount(4), service.WithQueueSize(4))
		defer r.Stop()
		ctx := context.Background()

		const distinct = 4
		want := make([][]byte, distinct)
		for i := range want {
			out, err := r.Render(ctx, sampleContext(uint64(i)*1000, fmt.Sprintf("user-%d", i)))
			So(err, ShouldBeNil)
			want[i] = out
		}

		Convey("When they render concurrently", func() {
			const callers = 32
			var wg sync.WaitGroup
			var mu sync.Mutex
			mismatches := 0
			for n := 0; n < callers; n++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					i := n % distinct
					out, err := r.Render(ctx, sampleContext(uint64(i)*1000, fmt.Sprintf("user-%d", i)))
					if err != nil || !bytes.Equal(out, want[i]) {
						mu.Lock()
						mismatches++
						mu.Unlock()
					}
				}(n)
			}
			wg.Wait()

			Convey("Then every caller gets the image for its own context", func() {
				So(mismatches, ShouldEqual, 0)
			})
		})
	})
}
