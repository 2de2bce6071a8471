// Package config loads service settings from the environment.
package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Ollama      OllamaConfig
	App         AppConfig
	Store       StoreConfig
	ParamPrefix string
}

type OllamaConfig struct {
	Model       string
	URL         string
	NumCtx      int
	NumPredict  int
	Temperature float64
	Timeout     time.Duration
}

type AppConfig struct {
	BindAddr         string
	MetricsNamespace string
	MaxMessages      int
	MaxMessageLength int
	Tracing          bool
}

type StoreConfig struct {
	DatabaseURL   string
	Table         string
	CustomerIndex string
	SeedFile      string
}

var defaults = map[string]string{
	"ollama.model":             "gemma3:12b",
	"ollama.url":               "http://ollama:11434",
	"ollama.ctx":               "1024",
	"ollama.num_predict":       "256",
	"ollama.temperature":       "0.2",
	"ollama.timeout":           "120s",
	"app.bind_addr":            ":8080",
	"app.metrics_namespace":    "cargo_chat",
	"app.max_messages":         "100",
	"app.max_message_length":   "4000",
	"app.tracing":              "false",
	"shipments.customer_index": "customer-index",
}

// sections are the env prefixes this service reads; everything else is ignored.
var sections = map[string]bool{
	"ollama":    true,
	"app":       true,
	"shipments": true,
	"database":  true,
	"param":     true,
}

// envKey maps OLLAMA_NUM_PREDICT to ollama.num_predict.
func envKey(s string) string {
	section, rest, ok := strings.Cut(strings.ToLower(s), "_")
	if !ok || rest == "" || !sections[section] {
		return ""
	}
	return section + "." + rest
}

// Load reads the process environment. Blank or unparseable values fall back
// to their defaults.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	for key, v := range defaults {
		if strings.TrimSpace(k.String(key)) == "" {
			if err := k.Set(key, v); err != nil {
				return nil, fmt.Errorf("config: default %s: %w", key, err)
			}
		}
	}

	return &Config{
		Ollama: OllamaConfig{
			Model:       str(k, "ollama.model"),
			URL:         str(k, "ollama.url"),
			NumCtx:      positiveInt(k, "ollama.ctx"),
			NumPredict:  positiveInt(k, "ollama.num_predict"),
			Temperature: temperature(k, "ollama.temperature"),
			Timeout:     duration(k, "ollama.timeout"),
		},
		App: AppConfig{
			BindAddr:         str(k, "app.bind_addr"),
			MetricsNamespace: str(k, "app.metrics_namespace"),
			MaxMessages:      positiveInt(k, "app.max_messages"),
			MaxMessageLength: positiveInt(k, "app.max_message_length"),
			Tracing:          boolean(k, "app.tracing"),
		},
		Store: StoreConfig{
			DatabaseURL:   str(k, "database.url"),
			Table:         str(k, "shipments.table"),
			CustomerIndex: str(k, "shipments.customer_index"),
			SeedFile:      str(k, "shipments.seed_file"),
		},
		ParamPrefix: strings.TrimRight(str(k, "param.prefix"), "/"),
	}, nil
}

func str(k *koanf.Koanf, key string) string {
	return strings.TrimSpace(k.String(key))
}

func positiveInt(k *koanf.Koanf, key string) int {
	if n, err := strconv.Atoi(str(k, key)); err == nil && n > 0 {
		return n
	}
	n, _ := strconv.Atoi(defaults[key])
	return n
}

func temperature(k *koanf.Koanf, key string) float64 {
	if f, err := strconv.ParseFloat(str(k, key), 64); err == nil && f >= 0 {
		return f
	}
	f, _ := strconv.ParseFloat(defaults[key], 64)
	return f
}

// duration accepts Go durations ("90s") or whole seconds ("90").
func duration(k *koanf.Koanf, key string) time.Duration {
	raw := str(k, key)
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	d, _ := time.ParseDuration(defaults[key])
	return d
}

func boolean(k *koanf.Koanf, key string) bool {
	b, err := strconv.ParseBool(str(k, key))
	return err == nil && b
}

// ParamLookup fetches named parameters; missing names are absent from the map.
type ParamLookup interface {
	Lookup(ctx context.Context, names ...string) (map[string]string, error)
}

// ApplyParams overrides the LLM model and URL from {prefix}/config/ollama_model
// and {prefix}/config/ollama_url when a parameter prefix is configured.
func (c *Config) ApplyParams(ctx context.Context, p ParamLookup) error {
	if c.ParamPrefix == "" || p == nil {
		return nil
	}
	modelKey := c.ParamPrefix + "/config/ollama_model"
	urlKey := c.ParamPrefix + "/config/ollama_url"
	vals, err := p.Lookup(ctx, modelKey, urlKey)
	if err != nil {
		return fmt.Errorf("config: load parameters: %w", err)
	}
	if v := strings.TrimSpace(vals[modelKey]); v != "" {
		c.Ollama.Model = v
	}
	if v := strings.TrimSpace(vals[urlKey]); v != "" {
		c.Ollama.URL = v
	}
	return nil
}
