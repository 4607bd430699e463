package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/erlayout/pkg/cache"
	"github.com/matzehuels/erlayout/pkg/core/er"
	"github.com/matzehuels/erlayout/pkg/core/layout"
	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// DefaultSettingsFile is the config file looked up in the working directory.
const DefaultSettingsFile = "erlayout.toml"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// DefaultAddr is the API listen address.
const DefaultAddr = ":8080"

// Settings are the values read from erlayout.toml:
//
//	provider = "neato"
//
//	[tiers.light]
//	spring_iterations = 400
//
//	[sizes.entity]
//	width = 2.0
//	height = 0.8
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":9000"
//
// A tier table only overrides the keys it names; the rest come from the
// built-in preset.
type Settings struct {
	Provider string
	Sizes    er.Sizes
	Tiers    map[layout.Level]layout.Config
	Cache    CacheSettings
	Server   ServerSettings
}

// CacheSettings selects and configures the cache backend.
type CacheSettings struct {
	Backend  string `toml:"backend"`   // file (default), redis, none
	Dir      string `toml:"dir"`       // file backend; empty = per-user cache dir
	RedisURL string `toml:"redis_url"` // redis backend
	Prefix   string `toml:"prefix"`    // key scope
}

// ServerSettings configures `erlayout serve`.
type ServerSettings struct {
	Addr string `toml:"addr"`
}

// settingsFile is the on-disk shape. Tier tables stay undecoded until the
// matching preset is known.
type settingsFile struct {
	Provider string                    `toml:"provider"`
	Sizes    er.Sizes                  `toml:"sizes"`
	Tiers    map[string]toml.Primitive `toml:"tiers"`
	Cache    CacheSettings             `toml:"cache"`
	Server   ServerSettings            `toml:"server"`
}

// DefaultSettings returns settings with no overrides.
func DefaultSettings() *Settings {
	return &Settings{
		Cache:  CacheSettings{Backend: CacheFile},
		Server: ServerSettings{Addr: DefaultAddr},
	}
}

// LoadSettings reads a TOML settings file. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "settings file %s", path)
		}
		return nil, err
	}
	s, err := ParseSettings(string(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "%s", filepath.Base(path))
	}
	return s, nil
}

// LoadSettingsIfPresent reads path when it exists and returns defaults
// otherwise.
func LoadSettingsIfPresent(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultSettings(), nil
	}
	return LoadSettings(path)
}

// ParseSettings decodes TOML settings text.
func ParseSettings(text string) (*Settings, error) {
	var f settingsFile
	md, err := toml.Decode(text, &f)
	if err != nil {
		return nil, err
	}

	s := DefaultSettings()
	s.Provider = strings.ToLower(f.Provider)
	s.Sizes = f.Sizes
	if f.Cache.Backend != "" {
		s.Cache.Backend = strings.ToLower(f.Cache.Backend)
	}
	s.Cache.Dir, s.Cache.RedisURL, s.Cache.Prefix = f.Cache.Dir, f.Cache.RedisURL, f.Cache.Prefix
	if f.Server.Addr != "" {
		s.Server.Addr = f.Server.Addr
	}

	for name, prim := range f.Tiers {
		level, err := layout.ParseLevel(name)
		if err != nil {
			return nil, errs.New(errs.ErrCodeInvalidTier, "unknown tier table [tiers.%s]", name)
		}
		cfg := layout.Preset(level)
		if err := md.PrimitiveDecode(prim, &cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "[tiers.%s]", name)
		}
		if s.Tiers == nil {
			s.Tiers = make(map[layout.Level]layout.Config)
		}
		s.Tiers[level] = cfg
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks provider and cache backend names.
func (s *Settings) Validate() error {
	if s.Provider != "" {
		if err := ValidateProvider(s.Provider); err != nil {
			return err
		}
	}
	switch s.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if s.Cache.RedisURL == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
		}
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown cache backend %q (must be one of: file, redis, none)", s.Cache.Backend)
	}
	if s.Sizes.Entity.Width < 0 || s.Sizes.Entity.Height < 0 ||
		s.Sizes.Attribute.Width < 0 || s.Sizes.Attribute.Height < 0 ||
		s.Sizes.Relationship.Width < 0 || s.Sizes.Relationship.Height < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "node sizes must not be negative")
	}
	return nil
}

// Preset returns the configuration for level with file overrides applied.
// A nil receiver returns the built-in preset.
func (s *Settings) Preset(level layout.Level) layout.Config {
	if s != nil {
		if cfg, ok := s.Tiers[level]; ok {
			return cfg
		}
	}
	return layout.Preset(level)
}

// NodeSizes returns the default node sizes for documents that leave them unset.
func (s *Settings) NodeSizes() er.Sizes {
	if s == nil {
		return er.Sizes{}
	}
	return s.Sizes
}

// Fingerprint hashes everything in s that changes computed coordinates.
// Settings without overrides share the fingerprint "default".
func (s *Settings) Fingerprint() string {
	if s == nil || (len(s.Tiers) == 0 && s.Sizes == (er.Sizes{})) {
		return "default"
	}
	levels := make([]layout.Level, 0, len(s.Tiers))
	for l := range s.Tiers {
		levels = append(levels, l)
	}
	slices.Sort(levels)
	tiers := make([]layout.Config, len(levels))
	for i, l := range levels {
		tiers[i] = s.Tiers[l]
	}
	data, _ := json.Marshal(struct {
		Sizes er.Sizes
		Tiers []layout.Config
	}{s.Sizes, tiers})
	return cache.Hash(data)[:16]
}

// OpenCache creates the configured cache backend, wrapped with
// observability hooks. ScopedKeyer prefixes are applied by the caller.
func (s *Settings) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch s.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		c, err := cache.NewRedisCache(ctx, s.Cache.RedisURL, "")
		if err != nil {
			return nil, err
		}
		return cache.Observed(c), nil
	}
	dir := s.Cache.Dir
	if dir == "" {
		d, err := cache.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	c, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return cache.Observed(c), nil
}
