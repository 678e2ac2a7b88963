package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/levelcard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.AvatarTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.RenderTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given configs with unusable fields", t, func() {
		mutations := []func(*config.Config){
			func(c *config.Config) { c.Addr = "" },
			func(c *config.Config) { c.WorkerCount = 0 },
			func(c *config.Config) { c.QueueSize = -1 },
			func(c *config.Config) { c.LogMaxSizeMB = -1 },
			func(c *config.Config) { c.AvatarTimeoutMS = 0 },
			func(c *config.Config) { c.AvatarRetries = -1 },
			func(c *config.Config) { c.RenderTimeoutMS = 0 },
		}

		convey.Convey("Then each fails validation", func() {
			for _, mutate := range mutations {
				cfg := config.New(context.Background())
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
