// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/devblok/koruasset/asset"
)

// ErrConfiguration is wrapped by every invalid configuration value
var ErrConfiguration = errors.New("invalid configuration")

// Environment keys read by LoadConfiguration
const (
	EnvFramesPerSecond     = "KORU_FPS"
	EnvEventPollDelay      = "KORU_EVENT_POLL_DELAY"
	EnvAssetWorkers        = "KORU_ASSET_WORKERS"
	EnvAssetMaxAttempts    = "KORU_ASSET_MAX_ATTEMPTS"
	EnvAssetDependencyWait = "KORU_ASSET_DEPENDENCY_WAIT"
	EnvAssetPollInterval   = "KORU_ASSET_POLL_INTERVAL"
	EnvAssetCommandQueue   = "KORU_ASSET_COMMAND_QUEUE"
	EnvAssetURLQueue       = "KORU_ASSET_URL_QUEUE"
	EnvAssetResultQueue    = "KORU_ASSET_RESULT_QUEUE"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time   TimeConfiguration
	Assets asset.Configuration
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the event loop period in milliseconds
	EventPollDelay int
}

// DefaultConfiguration is used for every key not present in the environment
var DefaultConfiguration = Configuration{
	Time: TimeConfiguration{
		FramesPerSecond: 60,
		EventPollDelay:  DefaultEventPollDelay,
	},
	Assets: asset.DefaultConfiguration,
}

// LoadConfiguration loads the given .env files into the environment,
// without overriding variables already set, then reads the KORU_*
// keys. Durations use time.ParseDuration syntax.
func LoadConfiguration(files ...string) (Configuration, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Configuration{}, err
		}
	}
	envy.Reload()

	var (
		cfg  = DefaultConfiguration
		errs error
	)
	errs = multierr.Append(errs, intFromEnv(EnvFramesPerSecond, &cfg.Time.FramesPerSecond))
	errs = multierr.Append(errs, intFromEnv(EnvEventPollDelay, &cfg.Time.EventPollDelay))
	errs = multierr.Append(errs, intFromEnv(EnvAssetWorkers, &cfg.Assets.Workers))
	errs = multierr.Append(errs, intFromEnv(EnvAssetMaxAttempts, &cfg.Assets.MaxAttempts))
	errs = multierr.Append(errs, durationFromEnv(EnvAssetDependencyWait, &cfg.Assets.DependencyWait))
	errs = multierr.Append(errs, durationFromEnv(EnvAssetPollInterval, &cfg.Assets.PollInterval))
	errs = multierr.Append(errs, intFromEnv(EnvAssetCommandQueue, &cfg.Assets.CommandQueueSize))
	errs = multierr.Append(errs, intFromEnv(EnvAssetURLQueue, &cfg.Assets.URLQueueSize))
	errs = multierr.Append(errs, intFromEnv(EnvAssetResultQueue, &cfg.Assets.ResultQueueSize))
	if errs != nil {
		return Configuration{}, errs
	}
	return cfg, nil
}

func intFromEnv(key string, dst *int) error {
	raw := envy.Get(key, "")
	if raw == "" {
		return nil
	}
	num, err := strconv.Atoi(raw)
	if err != nil || num < 0 {
		return fmt.Errorf("%w: %s=%q", ErrConfiguration, key, raw)
	}
	*dst = num
	return nil
}

func durationFromEnv(key string, dst *time.Duration) error {
	raw := envy.Get(key, "")
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fmt.Errorf("%w: %s=%q", ErrConfiguration, key, raw)
	}
	*dst = d
	return nil
}
