package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/scrollfeed/internal/app"
	"github.com/sharetube/scrollfeed/internal/feed"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	backendURL = configVar[string]{
		envKey:       "SERVER_BACKEND_URL",
		flagKey:      "backend-url",
		defaultValue: "http://localhost:5000",
	}
	backendTimeout = configVar[time.Duration]{
		envKey:       "SERVER_BACKEND_TIMEOUT",
		flagKey:      "backend-timeout",
		defaultValue: 10 * time.Second,
	}
	mediaDir = configVar[string]{
		envKey:       "SERVER_MEDIA_DIR",
		flagKey:      "media-dir",
		defaultValue: "./static/media",
	}
	pageSize = configVar[int]{
		envKey:       "SERVER_PAGE_SIZE",
		flagKey:      "page-size",
		defaultValue: feed.DefaultPageSize,
	}
	prefetchDistance = configVar[int]{
		envKey:       "SERVER_PREFETCH_DISTANCE",
		flagKey:      "prefetch-distance",
		defaultValue: feed.DefaultPrefetchDistance,
	}
	scrollBaseline = configVar[int]{
		envKey:       "SERVER_SCROLL_BASELINE",
		flagKey:      "scroll-baseline",
		defaultValue: feed.DefaultScrollBaseline,
	}
	sessionStore = configVar[string]{
		envKey:       "SERVER_SESSION_STORE",
		flagKey:      "session-store",
		defaultValue: app.SessionStoreMemory,
	}
	sessionTTL = configVar[time.Duration]{
		envKey:       "SERVER_SESSION_TTL",
		flagKey:      "session-ttl",
		defaultValue: 2 * time.Hour,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	redisDB = configVar[int]{
		envKey:       "REDIS_DB",
		flagKey:      "redis-db",
		defaultValue: 0,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(backendURL.flagKey, backendURL.defaultValue, "Base URL of the videos/view/like API")
	pflag.Duration(backendTimeout.flagKey, backendTimeout.defaultValue, "Timeout of a single backend call")
	pflag.String(mediaDir.flagKey, mediaDir.defaultValue, "Directory holding {id}/{id}.mpd manifests and segments")
	pflag.Int(pageSize.flagKey, pageSize.defaultValue, "Number of videos requested per page")
	pflag.Int(prefetchDistance.flagKey, prefetchDistance.defaultValue, "Fetch the next page when this close to the end of the list")
	pflag.Int(scrollBaseline.flagKey, scrollBaseline.defaultValue, "Scroll offset the page is reset to after every gesture")
	pflag.String(sessionStore.flagKey, sessionStore.defaultValue, "Session store: memory or redis")
	pflag.Duration(sessionTTL.flagKey, sessionTTL.defaultValue, "Idle time after which a session snapshot expires")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, "Redis database")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(backendURL.flagKey, backendURL.envKey)
	viper.BindEnv(backendTimeout.flagKey, backendTimeout.envKey)
	viper.BindEnv(mediaDir.flagKey, mediaDir.envKey)
	viper.BindEnv(pageSize.flagKey, pageSize.envKey)
	viper.BindEnv(prefetchDistance.flagKey, prefetchDistance.envKey)
	viper.BindEnv(scrollBaseline.flagKey, scrollBaseline.envKey)
	viper.BindEnv(sessionStore.flagKey, sessionStore.envKey)
	viper.BindEnv(sessionTTL.flagKey, sessionTTL.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(redisDB.flagKey, redisDB.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(backendURL.flagKey, backendURL.defaultValue)
	viper.SetDefault(backendTimeout.flagKey, backendTimeout.defaultValue)
	viper.SetDefault(mediaDir.flagKey, mediaDir.defaultValue)
	viper.SetDefault(pageSize.flagKey, pageSize.defaultValue)
	viper.SetDefault(prefetchDistance.flagKey, prefetchDistance.defaultValue)
	viper.SetDefault(scrollBaseline.flagKey, scrollBaseline.defaultValue)
	viper.SetDefault(sessionStore.flagKey, sessionStore.defaultValue)
	viper.SetDefault(sessionTTL.flagKey, sessionTTL.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(redisDB.flagKey, redisDB.defaultValue)

	config := &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		BackendURL:       viper.GetString(backendURL.flagKey),
		BackendTimeout:   viper.GetDuration(backendTimeout.flagKey),
		MediaDir:         viper.GetString(mediaDir.flagKey),
		PageSize:         viper.GetInt(pageSize.flagKey),
		PrefetchDistance: viper.GetInt(prefetchDistance.flagKey),
		ScrollBaseline:   viper.GetInt(scrollBaseline.flagKey),
		SessionStore:     viper.GetString(sessionStore.flagKey),
		SessionTTL:       viper.GetDuration(sessionTTL.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		RedisDB:          viper.GetInt(redisDB.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
