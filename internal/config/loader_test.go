package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/lumina-social/lumina/internal/config"
)

var configEnvVars = []string{
	"LUMINA_CONFIG",
	"LUMINA_LOG_LEVEL",
	"LUMINA_ADDR",
	"LUMINA_QUEUE_SIZE",
	"LUMINA_WORKER_COUNT",
	"LUMINA_DEDUPE_SIZE",
	"LUMINA_MAX_LEADERBOARD_LIMIT",
	"LUMINA_CATALOG_BASE_URL",
	"LUMINA_CATALOG_API_KEY",
	"LUMINA_SOCIAL_BASE_URL",
	"LUMINA_SOCIAL_API_KEY",
}

func clearConfigEnvVars() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "lumina-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 100_000)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("LUMINA_ADDR", ":9090")
			_ = os.Setenv("LUMINA_QUEUE_SIZE", "50000")
			_ = os.Setenv("LUMINA_WORKER_COUNT", "16")
			_ = os.Setenv("LUMINA_CATALOG_API_KEY", "cat-key")
			_ = os.Setenv("LUMINA_SOCIAL_API_KEY", "soc-key")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env vars override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 50000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.CatalogAPIKey, convey.ShouldEqual, "cat-key")
				convey.So(cfg.SocialAPIKey, convey.ShouldEqual, "soc-key")
			})
		})

		convey.Convey("When a YAML file is provided", func() {
			yamlContent := `
addr: ":7070"
worker_count: 8
max_leaderboard_limit: 25
action_points:
  LIKE_TRACK: 7
  STREAM_TRACK: 3
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("LUMINA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply, including point overrides", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 25)
				convey.So(cfg.ActionPoints["LIKE_TRACK"], convey.ShouldEqual, 7)
				convey.So(cfg.ActionPoints["STREAM_TRACK"], convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When env vars layer over a file", func() {
			tmpFile := createTempConfigFile(t, "addr: \":7070\"\nworker_count: 8\n")
			_ = os.Setenv("LUMINA_CONFIG", tmpFile)
			_ = os.Setenv("LUMINA_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When the file path is bogus", func() {
			_ = os.Setenv("LUMINA_CONFIG", "/nonexistent/lumina.yaml")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the load kind", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, config.ErrLoadConfig.Error())
			})
		})

		convey.Convey("When a value fails validation", func() {
			_ = os.Setenv("LUMINA_QUEUE_SIZE", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with the invalid kind", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, config.ErrInvalidConfig.Error())
			})
		})
	})
}
