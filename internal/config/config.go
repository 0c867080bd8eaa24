package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gravitas-games/cargoyard/internal/catalog"
	"github.com/gravitas-games/cargoyard/pkg/cargo"
)

// Config holds all server configuration
type Config struct {
	Server   ServerConfig       `yaml:"server"`
	JWT      JWTConfig          `yaml:"jwt"`
	Redis    RedisConfig        `yaml:"redis"`
	Log      LogConfig          `yaml:"log"`
	Catalog  []catalog.ItemType `yaml:"catalog"`
	Carriers []CarrierConfig    `yaml:"carriers"`
	Stations []StationConfig    `yaml:"stations"`
	Zones    []ZoneConfig       `yaml:"zones"`
}

// ServerConfig holds server-specific settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TickRate int    `yaml:"tick_rate"` // Hz
}

// JWTConfig holds observer authentication settings
type JWTConfig struct {
	Disabled            bool   `yaml:"disabled"`
	Issuer              string `yaml:"issuer"`
	PublicKeyURL        string `yaml:"public_key_url"`
	PublicKeyRefreshHrs int    `yaml:"public_key_refresh_hours"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BlacklistPrefix string `yaml:"blacklist_prefix"`
	Channel         string `yaml:"channel"` // pub/sub channel for cargo events
}

// LogConfig selects logrus level and formatter
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// ContainerConfig describes one bay of a carrier
type ContainerConfig struct {
	ItemType  cargo.ItemType `yaml:"item_type"`
	Grid      cargo.GridSpec `yaml:"grid"`
	HalfDepth float64        `yaml:"half_depth"` // 0 derives it from the grid
}

// CarrierConfig describes a character carrying stacked containers
type CarrierConfig struct {
	ID         string            `yaml:"id"` // empty gets a generated id
	Position   cargo.Vec3        `yaml:"position"`
	Axis       string            `yaml:"axis"`
	Spacing    float64           `yaml:"spacing"`
	Containers []ContainerConfig `yaml:"containers"`
}

// StationConfig describes a fixed single-type container
type StationConfig struct {
	ID       string         `yaml:"id"`
	ItemType cargo.ItemType `yaml:"item_type"`
	Position cargo.Vec3     `yaml:"position"`
	Grid     cargo.GridSpec `yaml:"grid"`
}

// MaxTickRate is the highest accepted server.tick_rate in Hz.
const MaxTickRate = 1000

// Zone kinds
const (
	ZoneProducer  = "producer"
	ZoneCollector = "collector"
	ZoneUnloader  = "unloader"
	ZoneSeller    = "seller"
)

// ZoneConfig describes one gameplay loop
type ZoneConfig struct {
	Name         string         `yaml:"name"`
	Kind         string         `yaml:"kind"`
	Station      string         `yaml:"station"`
	Carrier      string         `yaml:"carrier"`
	ItemType     cargo.ItemType `yaml:"item_type"`
	Interval     time.Duration  `yaml:"interval"`
	MoveDuration time.Duration  `yaml:"move_duration"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates references
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.TickRate == 0 {
		cfg.Server.TickRate = 20
	}
	if cfg.JWT.PublicKeyRefreshHrs == 0 {
		cfg.JWT.PublicKeyRefreshHrs = 24
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "cargo.events"
	}
	if cfg.Redis.BlacklistPrefix == "" {
		cfg.Redis.BlacklistPrefix = "blacklist:"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	for i := range cfg.Carriers {
		if cfg.Carriers[i].Axis == "" {
			cfg.Carriers[i].Axis = "z"
		}
	}
	for i := range cfg.Zones {
		z := &cfg.Zones[i]
		if z.Interval == 0 {
			z.Interval = time.Second
		}
		if z.MoveDuration == 0 {
			z.MoveDuration = 250 * time.Millisecond
		}
		if z.Name == "" {
			z.Name = fmt.Sprintf("%s-%d", z.Kind, i)
		}
	}
}

// Validate reports every broken reference at once
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Server.TickRate <= 0 || cfg.Server.TickRate > MaxTickRate {
		errs = append(errs, fmt.Errorf("server: tick_rate %d out of range 1..%d", cfg.Server.TickRate, MaxTickRate))
	}
	types := make(map[cargo.ItemType]bool, len(cfg.Catalog))
	for _, t := range cfg.Catalog {
		types[t.ID] = true
	}
	known := func(where string, t cargo.ItemType) {
		if !types[t] {
			errs = append(errs, fmt.Errorf("%s: unknown item type %q", where, t))
		}
	}
	stations := make(map[string]bool, len(cfg.Stations))
	for _, s := range cfg.Stations {
		where := fmt.Sprintf("station %q", s.ID)
		if s.ID == "" {
			errs = append(errs, errors.New("station without id"))
		}
		if stations[s.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		stations[s.ID] = true
		known(where, s.ItemType)
		if err := s.Grid.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}
	carriers := make(map[string]bool, len(cfg.Carriers))
	for _, c := range cfg.Carriers {
		where := fmt.Sprintf("carrier %q", c.ID)
		if c.ID != "" {
			if carriers[c.ID] {
				errs = append(errs, fmt.Errorf("%s: duplicate id", where))
			}
			carriers[c.ID] = true
		}
		if _, ok := cargo.ParseAxis(c.Axis); !ok {
			errs = append(errs, fmt.Errorf("%s: bad axis %q", where, c.Axis))
		}
		for _, cc := range c.Containers {
			known(where, cc.ItemType)
			if err := cc.Grid.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
	}
	for _, z := range cfg.Zones {
		where := fmt.Sprintf("zone %q", z.Name)
		needStation, needCarrier := false, false
		switch z.Kind {
		case ZoneProducer:
			needStation = true
		case ZoneCollector, ZoneUnloader:
			needStation, needCarrier = true, true
		case ZoneSeller:
			needCarrier = true
			if z.ItemType != "" {
				known(where, z.ItemType)
			}
		default:
			errs = append(errs, fmt.Errorf("%s: unknown kind %q", where, z.Kind))
		}
		if needStation && !stations[z.Station] {
			errs = append(errs, fmt.Errorf("%s: unknown station %q", where, z.Station))
		}
		if needCarrier && !carriers[z.Carrier] {
			errs = append(errs, fmt.Errorf("%s: unknown carrier %q", where, z.Carrier))
		}
	}
	return errors.Join(errs...)
}
