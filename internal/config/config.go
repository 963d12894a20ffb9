package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/codexvs/codexvs/internal/attribution"
	"github.com/codexvs/codexvs/internal/buff"
	"github.com/codexvs/codexvs/internal/combatlog"
	"github.com/codexvs/codexvs/internal/player"
)

// DefaultPath is used when neither -config nor CODEXVS_CONFIG is set.
const DefaultPath = "config/codexvs.yaml"

// Config holds all configuration for codexvs.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Parallel replays for "codex -all"
	Workers int `yaml:"workers"`

	API         APIConfig         `yaml:"api"`
	Database    DatabaseConfig    `yaml:"database"`
	Attribution AttributionConfig `yaml:"attribution"`

	// Tracked Strength buffs; replaces the built-in list when set
	Buffs []buff.Definition `yaml:"buffs"`
}

// APIConfig holds Warcraft Logs API settings.
type APIConfig struct {
	Endpoint string `yaml:"endpoint"`
	TokenURL string `yaml:"token_url"`

	// Either a pre-issued bearer token or client credentials.
	// Secrets come from the environment only.
	Token        string `yaml:"-"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"-"`

	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
	PageLimit         int           `yaml:"page_limit"`
	MaxRetries        int           `yaml:"max_retries"`
}

// DatabaseConfig holds the optional PostgreSQL response store.
// An empty DSN disables the store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Enabled reports whether a DSN is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != ""
}

// AttributionConfig holds the item and class specific constants.
type AttributionConfig struct {
	RequiredItem        int64                 `yaml:"required_item"`
	TrackedAbility      combatlog.AbilityID   `yaml:"tracked_ability"`
	RepeatStackAbility  combatlog.AbilityID   `yaml:"repeat_stack_ability"`
	FlatBonus           float64               `yaml:"flat_bonus"`
	WeaponSlot          int                   `yaml:"weapon_slot"`
	WeaponConstant      float64               `yaml:"weapon_constant"`
	WeaponNormalization float64               `yaml:"weapon_normalization"`
	ScalingAbilities    []combatlog.AbilityID `yaml:"scaling_abilities"`

	// Removing an inactive aura is fatal unless this is set.
	TolerateUnknownRemovals bool `yaml:"tolerate_unknown_removals"`

	// Players analyzed by "codex -all" must match these.
	RequiredClass string `yaml:"required_class"`
	RequiredSpec  string `yaml:"required_spec"`
}

// Default returns Config with sensible defaults.
func Default() Config {
	engine := attribution.DefaultConfig()
	opts := player.DefaultOptions()
	return Config{
		LogLevel: "warn",
		Workers:  4,
		API: APIConfig{
			Endpoint:          "https://www.warcraftlogs.com/api/v2/client",
			TokenURL:          "https://www.warcraftlogs.com/oauth/token",
			RequestsPerSecond: 5,
			Timeout:           30 * time.Second,
			PageLimit:         10000,
			MaxRetries:        3,
		},
		Attribution: AttributionConfig{
			RequiredItem:        opts.RequiredItem,
			TrackedAbility:      engine.TrackedAbility,
			RepeatStackAbility:  opts.RepeatStack,
			FlatBonus:           engine.FlatBonus,
			WeaponSlot:          opts.WeaponSlot,
			WeaponConstant:      99.3,
			WeaponNormalization: opts.WeaponNormalization,
			ScalingAbilities:    engine.ScalingAbilities,
			RequiredClass:       "DeathKnight",
			RequiredSpec:        "Blood",
		},
		Buffs: buff.DefaultDefinitions(),
	}
}

// envOverrides are read from the process environment after the file.
type envOverrides struct {
	Path         string `env:"CODEXVS_CONFIG"`
	LogLevel     string `env:"CODEXVS_LOG_LEVEL"`
	Token        string `env:"CODEXVS_TOKEN"`
	ClientID     string `env:"CODEXVS_CLIENT_ID"`
	ClientSecret string `env:"CODEXVS_CLIENT_SECRET"`
	DatabaseDSN  string `env:"CODEXVS_DATABASE_DSN"`
}

func parseEnv() (envOverrides, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("parse env: %w", err)
	}
	return o, nil
}

// ResolvePath returns flagPath if set, then CODEXVS_CONFIG, then DefaultPath.
func ResolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if o, err := parseEnv(); err == nil && o.Path != "" {
		return o.Path
	}
	return DefaultPath
}

// Load loads config from a YAML file and applies environment overrides.
// If the file doesn't exist, defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	o, err := parseEnv()
	if err != nil {
		return cfg, err
	}
	cfg.applyEnv(o)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(o envOverrides) {
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Token != "" {
		c.API.Token = o.Token
	}
	if o.ClientID != "" {
		c.API.ClientID = o.ClientID
	}
	if o.ClientSecret != "" {
		c.API.ClientSecret = o.ClientSecret
	}
	if o.DatabaseDSN != "" {
		c.Database.DSN = o.DatabaseDSN
	}
}

// Validate checks values that would otherwise fail deep inside a replay.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if c.API.Endpoint == "" {
		errs = append(errs, errors.New("api.endpoint is required"))
	}
	if c.API.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("api.requests_per_second must be > 0, got %v", c.API.RequestsPerSecond))
	}
	if c.API.PageLimit < 1 {
		errs = append(errs, fmt.Errorf("api.page_limit must be >= 1, got %d", c.API.PageLimit))
	}
	if c.Attribution.FlatBonus <= 0 {
		errs = append(errs, fmt.Errorf("attribution.flat_bonus must be > 0, got %v", c.Attribution.FlatBonus))
	}
	if c.Attribution.WeaponNormalization <= 0 {
		errs = append(errs, fmt.Errorf("attribution.weapon_normalization must be > 0, got %v", c.Attribution.WeaponNormalization))
	}
	if len(c.Attribution.ScalingAbilities) == 0 {
		errs = append(errs, errors.New("attribution.scaling_abilities is empty"))
	}
	if _, err := buff.NewCatalog(c.Buffs); err != nil {
		errs = append(errs, fmt.Errorf("buffs: %w", err))
	}
	return errors.Join(errs...)
}

// HasCredentials reports whether the API can be authenticated.
func (a APIConfig) HasCredentials() bool {
	return a.Token != "" || (a.ClientID != "" && a.ClientSecret != "")
}

// Catalog builds the buff catalog.
func (c Config) Catalog() (*buff.Catalog, error) {
	return buff.NewCatalog(c.Buffs)
}

// EngineConfig returns the attribution engine parameters.
func (a AttributionConfig) EngineConfig() attribution.Config {
	return attribution.Config{
		TrackedAbility:          a.TrackedAbility,
		ScalingAbilities:        a.ScalingAbilities,
		FlatBonus:               a.FlatBonus,
		TolerateUnknownRemovals: a.TolerateUnknownRemovals,
	}
}

// PlayerOptions returns the snapshot derivation parameters.
func (a AttributionConfig) PlayerOptions() player.Options {
	return player.Options{
		RequiredItem:        a.RequiredItem,
		WeaponSlot:          a.WeaponSlot,
		WeaponConstant:      player.StubWeaponConstant(a.WeaponConstant),
		WeaponNormalization: a.WeaponNormalization,
		RepeatStack:         a.RepeatStackAbility,
	}
}
