package models

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := DecodeConfig(v)
	require.NoError(t, err)
	return cfg
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, 5, cfg.CVFolds)
	assert.Equal(t, []float64{0.5, 0.2}, cfg.Thresholds)
	assert.Equal(t, 240.0, cfg.MaxResponseHours)
	assert.Equal(t, ScoringROCAUC, cfg.Scoring)
	assert.Equal(t, "olist_order_reviews_dataset.csv", cfg.Files.Reviews)
	assert.Equal(t, []string{"l1", "l2"}, cfg.Logistic.Penalty)
	assert.Equal(t, []int{3, 5}, cfg.GBT.MaxDepth)
	assert.Equal(t, time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Generator.StartDate.UTC())
}

func TestDecodeConfigOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("workers", 4)
	v.Set("thresholds", "0.5,0.3")
	v.Set("gbt.max_depth", []int{2})

	cfg, err := DecodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []float64{0.5, 0.3}, cfg.Thresholds)
	assert.Equal(t, []int{2}, cfg.GBT.MaxDepth)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"one fold", func(c *Config) { c.CVFolds = 1 }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"test size of one", func(c *Config) { c.TestSize = 1 }},
		{"threshold out of range", func(c *Config) { c.Thresholds = []float64{1.5} }},
		{"no thresholds", func(c *Config) { c.Thresholds = nil }},
		{"unknown scoring", func(c *Config) { c.Scoring = "f2" }},
		{"unknown search mode", func(c *Config) { c.SearchMode = "bayes" }},
		{"random without iterations", func(c *Config) { c.SearchMode = SearchModeRandom; c.SearchIterations = 0 }},
		{"unknown export", func(c *Config) { c.ExportFormat = "xlsx" }},
		{"unknown penalty", func(c *Config) { c.Logistic.Penalty = []string{"elasticnet"} }},
		{"empty logistic grid axis", func(c *Config) { c.Logistic.C = nil }},
		{"empty gbt grid axis", func(c *Config) { c.GBT.MaxDepth = []int{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestDecodeConfigRejectsEmptyGridAxis(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("gbt.max_depth", []int{})

	_, err := DecodeConfig(v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "gbt.max_depth")
}

func TestDatabaseConnString(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "runs", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=runs sslmode=disable", d.ConnString())
}
