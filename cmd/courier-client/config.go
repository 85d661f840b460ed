package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-io/courier"
	"github.com/golang-io/courier/store"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Servers      []string               `yaml:"servers"`
	ClientID     string                 `yaml:"clientId"`
	Username     string                 `yaml:"username"`
	Password     string                 `yaml:"password"`
	KeepAlive    time.Duration          `yaml:"keepAlive"`
	CleanSession bool                   `yaml:"cleanSession"`
	Subscribe    []courier.Subscription `yaml:"subscribe"`

	Publish struct {
		Topic    string        `yaml:"topic"`
		QoS      courier.QoS   `yaml:"qos"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"publish"`

	Store struct {
		// Dir selects the badger store, empty keeps pending messages in memory.
		Dir      string `yaml:"dir"`
		Capacity int    `yaml:"capacity"`
		Eviction string `yaml:"eviction"`
	} `yaml:"store"`

	Backoff struct {
		Base   time.Duration `yaml:"base"`
		Max    time.Duration `yaml:"max"`
		Jitter float64       `yaml:"jitter"`
	} `yaml:"backoff"`

	HTTP struct {
		URL string `yaml:"url"`
	} `yaml:"http"`

	LogLevel string `yaml:"logLevel"`
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	cfg := &Config{KeepAlive: 60 * time.Second, LogLevel: "info"}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ConnectOptions converts the broker section and validates it.
func (cfg *Config) ConnectOptions() (courier.ConnectOptions, error) {
	opts := courier.ConnectOptions{
		ClientID:     cfg.ClientID,
		Username:     cfg.Username,
		Password:     cfg.Password,
		KeepAlive:    cfg.KeepAlive,
		CleanSession: cfg.CleanSession,
	}
	for _, s := range cfg.Servers {
		uri, err := courier.ParseServerURI(s)
		if err != nil {
			return opts, err
		}
		opts.ServerURIs = append(opts.ServerURIs, uri)
	}
	return opts, opts.Validate()
}

func (cfg *Config) OpenStore() (store.Store, error) {
	eviction, err := store.ParseEvictionPolicy(cfg.Store.Eviction)
	if err != nil {
		return nil, err
	}
	sc := store.Config{Capacity: cfg.Store.Capacity, Eviction: eviction}
	if cfg.Store.Dir == "" {
		m, err := store.NewMemory(sc)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	b, err := store.OpenBadger(cfg.Store.Dir, sc)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (cfg *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
