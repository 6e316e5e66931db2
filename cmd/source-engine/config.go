// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/source-engine/pkg/types"
)

// setDefaults registers every configuration key with v so that environment
// variables (SOURCE_ENGINE_REGISTRY_CATALOG_PATH and so on) can override
// keys that no config file mentions.
func setDefaults(v *viper.Viper, cfg types.EngineConfig) {
	v.SetDefault("scoring.tension_penalty", cfg.Scoring.TensionPenalty)

	v.SetDefault("registry.catalog_path", cfg.Registry.CatalogPath)
	v.SetDefault("registry.refresh_interval", cfg.Registry.RefreshInterval)
	v.SetDefault("registry.watch", cfg.Registry.Watch)
	v.SetDefault("registry.authority.base_url", cfg.Registry.Authority.BaseURL)
	v.SetDefault("registry.authority.api_key", cfg.Registry.Authority.APIKey)
	v.SetDefault("registry.authority.timeout", cfg.Registry.Authority.Timeout)
	v.SetDefault("registry.authority.user_agent", cfg.Registry.Authority.UserAgent)
	v.SetDefault("registry.authority.requests_per_second", cfg.Registry.Authority.RequestsPerSecond)
	v.SetDefault("registry.authority.concurrency", cfg.Registry.Authority.Concurrency)
	v.SetDefault("registry.authority.max_retries", cfg.Registry.Authority.MaxRetries)

	v.SetDefault("policy.path", cfg.Policy.Path)
	v.SetDefault("reporter.window_size", cfg.Reporter.WindowSize)
	v.SetDefault("reporter.window_age", cfg.Reporter.WindowAge)
	v.SetDefault("decision_log.path", cfg.DecisionLog.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("cache.classification_cache_size", cfg.Cache.ClassificationCacheSize)
}

// decodeConfig unmarshals v into an EngineConfig.
func decodeConfig(v *viper.Viper) (types.EngineConfig, error) {
	var cfg types.EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}
