// Package config loads the YAML runtime configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pskprop/filter"
	"pskprop/store"
)

// EnvConfigPath overrides the configuration file location.
const EnvConfigPath = "PSKPROP_CONFIG"

// DefaultPath is used when no path is given and the env override is unset.
const DefaultPath = "config.yaml"

// Config represents the complete runtime configuration.
type Config struct {
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Filter  FilterConfig  `yaml:"filter"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// MQTTConfig contains PSKReporter broker settings.
type MQTTConfig struct {
	Broker           string `yaml:"broker"`
	Port             int    `yaml:"port"`
	ClientID         string `yaml:"client_id"`
	KeepaliveSeconds int    `yaml:"keepalive_seconds"`
	TopicPrefix      string `yaml:"topic_prefix"`
}

// HTTPConfig contains the web server bind settings.
type HTTPConfig struct {
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`
}

// FilterConfig contains the initial geofilter settings. All of these can be
// changed at runtime through the config endpoint.
type FilterConfig struct {
	HomeLocator string   `yaml:"home_locator"`
	RadiusKm    float64  `yaml:"radius_km"`
	AgeMinutes  int      `yaml:"age_minutes"`
	Bands       []string `yaml:"bands"`
	MapType     string   `yaml:"map_type"`
}

// StoreConfig contains retention store settings.
type StoreConfig struct {
	Capacity int `yaml:"capacity"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	File string `yaml:"file"`
}

// Default returns the built-in configuration: public PSKReporter broker,
// Helsinki home square, 400 km radius, 15 minute window, every band enabled.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:           "mqtt.pskreporter.info",
			Port:             1883,
			ClientID:         "pskprop",
			KeepaliveSeconds: 60,
			TopicPrefix:      "pskr/filter/v2",
		},
		HTTP: HTTPConfig{
			BindAddress: "0.0.0.0",
			Port:        8080,
		},
		Filter: FilterConfig{
			HomeLocator: "KP20",
			RadiusKm:    400,
			AgeMinutes:  15,
			MapType:     "aeqd",
		},
		Store: StoreConfig{
			Capacity: store.DefaultCapacity,
		},
	}
}

// Load reads configuration from a YAML file, filling unset fields with
// defaults. A missing file is not an error; the defaults apply as-is.
func Load(filename string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Path resolves the config file path from the explicit flag value, the
// environment override, or the default, in that order.
func Path(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if env := os.Getenv(EnvConfigPath); strings.TrimSpace(env) != "" {
		return env
	}
	return DefaultPath
}

// Settings builds the initial filter settings snapshot.
func (c *Config) Settings() (*filter.Settings, error) {
	return filter.NewSettings(
		c.Filter.HomeLocator,
		c.Filter.RadiusKm,
		time.Duration(c.Filter.AgeMinutes)*time.Minute,
		c.Filter.Bands,
		c.Filter.MapType,
	)
}

// Keepalive returns the MQTT keepalive as a duration.
func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.MQTT.KeepaliveSeconds) * time.Second
}

// Print displays the effective configuration.
func (c *Config) Print() {
	fmt.Printf("MQTT: %s:%d (prefix %s)\n", c.MQTT.Broker, c.MQTT.Port, c.MQTT.TopicPrefix)
	fmt.Printf("HTTP: %s:%d\n", c.HTTP.BindAddress, c.HTTP.Port)
	bands := "all"
	if len(c.Filter.Bands) > 0 {
		bands = strings.Join(c.Filter.Bands, ", ")
	}
	fmt.Printf("Filter: home %s, radius %.0f km, window %d min, bands %s\n",
		c.Filter.HomeLocator, c.Filter.RadiusKm, c.Filter.AgeMinutes, bands)
}
