package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, 60, cfg.Crawler.NavTimeoutSec)
	assert.Equal(t, 20, cfg.Crawler.RequiredWaitSec)
	assert.Equal(t, 50, cfg.Crawler.CommentMaxPages)
	assert.Equal(t, 50, cfg.Crawler.ProductPageSize)
	assert.Equal(t, 20, cfg.Crawler.ProductMaxPages)
	assert.Equal(t, 0.9, cfg.Crawler.DomFallbackRatio)
	assert.Equal(t, "odd", cfg.Crawler.ChatSampling)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.Equal(t, "hybrid", cfg.Vision.Strategy)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Crawler.CommentMaxPages = 10
	cfg.Crawler.ChatSampling = "none"
	ApplyDefaults(cfg)

	assert.Equal(t, 10, cfg.Crawler.CommentMaxPages)
	assert.Equal(t, "none", cfg.Crawler.ChatSampling)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env-host/db")
	t.Setenv("CRAWLER_PROXY", "http://proxy:8080")

	cfg := &Config{}
	cfg.Database.DSN = "postgres://yaml-host/db"
	overrideFromEnv(cfg)

	assert.Equal(t, "postgres://env-host/db", cfg.Database.DSN)
	assert.Equal(t, "http://proxy:8080", cfg.Crawler.Proxy)
}
