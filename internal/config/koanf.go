// Meridian - Bidirectional DAAP Sharing Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/meridian/config.yaml",
	"/etc/meridian/config.yml",
}

// ConfigPathEnvVar overrides the config file search with an explicit path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Share: ShareConfig{
			Media:            true,
			Discoverable:     true,
			Name:             "Meridian Share",
			Audio:            true,
			Video:            true,
			Feed:             true,
			SupportDirectory: "/data/meridian/support",
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               3689, // conventional DAAP port
			HTTPPort:           3690,
			ShutdownTimeout:    10 * time.Second,
			TranscodeRateLimit: 8,
			TranscodeBurst:     16,
		},
		EventBus: EventBusConfig{
			Embedded: true,
			URL:      "nats://127.0.0.1:4222",
			Stream:   "MERIDIAN_CATALOG",
		},
		Database: DatabaseConfig{
			Path:    "/data/meridian/catalog.duckdb",
			Threads: 0, // 0 = runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Discovery: DiscoveryConfig{
			StaleRemovalGrace: 2 * time.Second,
		},
	}
}

// Load builds configuration from defaults, then an optional YAML file, then
// environment variables, in that precedence order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var envMappings = map[string]string{
	"share_media":             "share.media",
	"share_discoverable":      "share.discoverable",
	"share_name":              "share.name",
	"share_audio":             "share.audio",
	"share_video":             "share.video",
	"share_feed":              "share.feed",
	"support_directory":       "share.support_directory",
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_http_port":        "server.http_port",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"transcode_rate_limit":    "server.transcode_rate_limit",
	"transcode_burst":         "server.transcode_burst",
	"eventbus_embedded":       "eventbus.embedded",
	"eventbus_url":            "eventbus.url",
	"eventbus_stream":         "eventbus.stream",
	"duckdb_path":             "database.path",
	"duckdb_threads":          "database.threads",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
	"discovery_stale_grace":   "discovery.stale_removal_grace",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// Watch installs an fsnotify-driven reload loop over the resolved config
// file, invoking onChange with the freshly loaded Config on every write
// to (or creation of) the file; a reload that fails to load is skipped.
// cmd/server does not call Watch, so configuration changes take effect
// only on restart.
func Watch(onChange func(*Config)) (stop func() error, err error) {
	path := findConfigFile()
	if path == "" {
		return func() error { return nil }, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch config file %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, loadErr := Load()
				if loadErr != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-done:
				return
			}
		}
	}()

	return func() error {
		close(done)
		return watcher.Close()
	}, nil
}
