package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/gsbelarus/tetrisbot/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.DataFile, convey.ShouldEqual, "data/results.json")
			convey.So(cfg.AssetsDir, convey.ShouldEqual, "tetris")
			convey.So(cfg.FlushInterval, convey.ShouldEqual, time.Hour)
			convey.So(cfg.GameShortName, convey.ShouldEqual, "tetris")
			convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
		})

		convey.Convey("Then it should not validate without host, port and token", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_URLs(t *testing.T) {
	convey.Convey("Given a configured host and port", t, func() {
		cfg := config.New()
		cfg.Host = "tetris.gdmn.app"
		cfg.Port = 8443
		cfg.Token = "t"

		convey.Convey("Then derived addresses are built from them", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Addr(), convey.ShouldEqual, ":8443")
			convey.So(cfg.GameRoot(), convey.ShouldEqual, "https://tetris.gdmn.app:8443/tetris")
			convey.So(cfg.FriendsURL(), convey.ShouldEqual, "https://telegram.me/GoldenTetrisBot?game=tetris")
		})

		convey.Convey("Then an out of range port is rejected", func() {
			cfg.Port = 70000
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("Then a non-positive flush interval is rejected", func() {
			cfg.FlushInterval = 0
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
