package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"

	"github.com/savesync/savesync/conf"
	"github.com/savesync/savesync/notify"
	"github.com/savesync/savesync/savedir"
	"github.com/savesync/savesync/watch"
	"github.com/savesync/savesync/watch/network"
)

type appConfig struct {
	Backend       string      `env:"SAVESYNC_BACKEND,opt[simple,multipart,put,s3]"`
	Endpoint      string      `env:"SAVESYNC_ENDPOINT"`
	AuthMode      string      `env:"SAVESYNC_AUTH_MODE,opt[anonymous,apikey]"`
	APIKey        conf.Secret `env:"SAVESYNC_API_KEY"`
	LocationID    string      `env:"SAVESYNC_LOCATION_ID"`
	PublicBaseURL string      `env:"SAVESYNC_PUBLIC_BASE_URL"`

	S3Region          string      `env:"SAVESYNC_S3_REGION"`
	S3Bucket          string      `env:"SAVESYNC_S3_BUCKET"`
	S3AccessKeyID     conf.Secret `env:"SAVESYNC_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey conf.Secret `env:"SAVESYNC_S3_SECRET_ACCESS_KEY"`

	SaveDir              string      `env:"SAVESYNC_SAVE_DIR"`
	GameFolder           string      `env:"SAVESYNC_GAME_FOLDER"`
	Extension            string      `env:"SAVESYNC_EXTENSION"`
	Pattern              string      `env:"SAVESYNC_PATTERN"`
	WatchDirs            bool        `env:"SAVESYNC_WATCH_DIRS"`
	NamePrefix           string      `env:"SAVESYNC_NAME_PREFIX"`
	SourceLabel          string      `env:"SAVESYNC_SOURCE_LABEL"`
	WebhookURL           conf.Secret `env:"SAVESYNC_WEBHOOK_URL"`
	CheckIntervalMinutes int         `env:"SAVESYNC_CHECK_INTERVAL_MINUTES"`
	Verbose              bool        `env:"SAVESYNC_VERBOSE"`
}

func main() {
	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "restore" {
		err = runRestore(ctx, os.Args[2:], logger)
	} else {
		err = run(ctx, logger)
	}
	if err != nil {
		logger.Errorf("%s", err)
		os.Exit(1)
	}
}

// runRestore fetches a previously shared save from its download URL:
//
//	savesync restore <url> [destination]
//
// The destination defaults to the URL's last path segment in the working
// directory.
func runRestore(ctx context.Context, args []string, logger log.Logger) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: savesync restore <url> [destination]")
	}
	downloadURL := args[0]

	dest := ""
	if len(args) > 1 {
		dest = args[1]
	}
	if dest == "" {
		parsed, err := url.Parse(downloadURL)
		if err != nil {
			return fmt.Errorf("invalid download URL: %w", err)
		}
		dest = path.Base(parsed.Path)
		if dest == "." || dest == "/" {
			return fmt.Errorf("cannot derive a file name from %s, pass a destination", downloadURL)
		}
	}

	if err := network.Download(ctx, downloadURL, dest, logger); err != nil {
		return err
	}

	logger.Donef("Save restored to %s", dest)
	return nil
}

func run(ctx context.Context, logger log.Logger) error {
	envRepo := env.NewRepository()

	var config appConfig
	if err := conf.NewInputParser(envRepo).Parse(&config); err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}
	logger.EnableDebugLog(config.Verbose)

	if config.Backend == "" {
		config.Backend = string(network.KindMultipart)
	}
	if config.Extension == "" {
		config.Extension = ".zip"
	}
	if config.SourceLabel == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		config.SourceLabel = hostname
	}

	saveDir, err := savedir.Locate(config.SaveDir, config.GameFolder,
		pathutil.NewPathModifier(), pathutil.NewPathChecker())
	if err != nil {
		return fmt.Errorf("failed to locate save directory: %w", err)
	}

	backend, err := network.NewBackend(network.Config{
		Kind:            network.Kind(config.Backend),
		Endpoint:        config.Endpoint,
		LocationID:      config.LocationID,
		PublicBaseURL:   config.PublicBaseURL,
		AuthMode:        network.AuthMode(config.AuthMode),
		APIKey:          string(config.APIKey),
		Region:          config.S3Region,
		Bucket:          config.S3Bucket,
		AccessKeyID:     string(config.S3AccessKeyID),
		SecretAccessKey: string(config.S3SecretAccessKey),
	})
	if err != nil {
		return fmt.Errorf("failed to build backend: %w", err)
	}

	watcher := watch.NewWatcher(watch.Config{
		SaveDir:       saveDir,
		NamePrefix:    config.NamePrefix,
		SourceLabel:   config.SourceLabel,
		CheckInterval: time.Duration(config.CheckIntervalMinutes) * time.Minute,
	}, watch.Detector{
		Extension:   config.Extension,
		Pattern:     config.Pattern,
		IncludeDirs: config.WatchDirs,
	}, backend, notify.NewWebhookNotifier(string(config.WebhookURL), logger), logger)

	watcher.Run(ctx)
	return nil
}
