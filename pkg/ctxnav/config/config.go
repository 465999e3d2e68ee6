// Package config loads the application manifest driving the navigation
// engine: routes and their targets, the routing entity set, layout, logging,
// localization, metadata and history settings.
//
// Manifests are TOML or YAML files; the format is chosen by file extension.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/metadata"
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for manifest files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("config: unsupported manifest format")

// Config is the application manifest.
type Config struct {
	App        App                           `toml:"app" yaml:"app"`
	Routes     []Route                       `toml:"routes" yaml:"routes" validate:"dive"`
	Targets    map[string]Target             `toml:"targets" yaml:"targets" validate:"dive"`
	Layout     Layout                        `toml:"layout" yaml:"layout"`
	Log        Log                           `toml:"log" yaml:"log"`
	Metadata   Metadata                      `toml:"metadata" yaml:"metadata"`
	History    History                       `toml:"history" yaml:"history"`
	EntitySets map[string]metadata.EntitySet `toml:"entity_sets" yaml:"entity_sets" validate:"dive"`
	Navigation map[string]NavigationTarget   `toml:"navigation" yaml:"navigation" validate:"dive"`
	Outbounds  map[string]Outbound           `toml:"outbounds" yaml:"outbounds" validate:"dive"`
}

// App holds application-wide routing settings.
type App struct {
	EntitySet                string `toml:"entity_set" yaml:"entity_set"`
	ExitOnNavigateBackToRoot bool   `toml:"exit_on_navigate_back_to_root" yaml:"exit_on_navigate_back_to_root"`
	Language                 string `toml:"language" yaml:"language" validate:"omitempty,bcp47_language_tag"`
}

// Route maps a hash pattern to one target (fullscreen) or several targets
// (one per column of a multi-column layout).
type Route struct {
	Name    string   `toml:"name" yaml:"name" validate:"required"`
	Pattern string   `toml:"pattern" yaml:"pattern"`
	Targets []string `toml:"targets" yaml:"targets" validate:"required,min=1"`
}

// Target describes the view a route displays. Pattern, when set, overrides
// the route pattern for computing the view's binding path.
type Target struct {
	View      string  `toml:"view" yaml:"view" validate:"required"`
	Kind      string  `toml:"kind" yaml:"kind" validate:"omitempty,oneof=ListReport ObjectPage Custom"`
	EntitySet string  `toml:"entity_set" yaml:"entity_set"`
	Pattern   *string `toml:"pattern" yaml:"pattern"`
	Level     int     `toml:"level" yaml:"level" validate:"gte=0"`
}

// Layout configures the flexible column layout.
type Layout struct {
	Enabled  bool     `toml:"enabled" yaml:"enabled"`
	Names    []string `toml:"names" yaml:"names"`
	Overflow string   `toml:"overflow" yaml:"overflow"`
}

// Log configures the engine logger.
type Log struct {
	Path       string `toml:"path" yaml:"path"`
	Level      string `toml:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// Metadata configures a remote metadata service. Without a URL, metadata is
// served from EntitySets.
type Metadata struct {
	URL      string `toml:"url" yaml:"url" validate:"omitempty,url"`
	CacheTTL string `toml:"cache_ttl" yaml:"cache_ttl"`
}

// TTL parses CacheTTL. An empty or invalid value yields 0.
func (m Metadata) TTL() time.Duration {
	d, err := time.ParseDuration(m.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// History configures the persistent navigation log. Without a path the log
// is kept in memory.
type History struct {
	Path string `toml:"path" yaml:"path"`
}

// NavigationTarget is a named navigation to a route whose parameters are
// computed from the source context, e.g. {"key": "{OrderID}"}.
type NavigationTarget struct {
	Route      string            `toml:"route" yaml:"route" validate:"required"`
	Parameters map[string]string `toml:"parameters" yaml:"parameters"`
}

// Outbound is a cross-application navigation target.
type Outbound struct {
	SemanticObject string            `toml:"semantic_object" yaml:"semantic_object" validate:"required"`
	Action         string            `toml:"action" yaml:"action" validate:"required"`
	Parameters     map[string]string `toml:"parameters" yaml:"parameters"`
}

// Load reads and validates a manifest file.
func Load(file string) (*Config, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", file, err)
	}
	return Parse(raw, strings.TrimPrefix(filepath.Ext(file), "."))
}

// Parse decodes and validates a manifest in the given format ("toml", "yaml" or "yml").
func Parse(raw []byte, format string) (*Config, error) {
	var c Config
	switch strings.ToLower(format) {
	case "toml":
		if _, err := toml.Decode(string(raw), &c); err != nil {
			return nil, fmt.Errorf("config: decode toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("config: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var validate = validator.New()

// Validate checks field constraints and that every route refers to known targets.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for _, r := range c.Routes {
		for _, name := range r.Targets {
			if _, ok := c.Targets[name]; !ok {
				return fmt.Errorf("config: route %q refers to unknown target %q", r.Name, name)
			}
		}
	}
	for name, nav := range c.Navigation {
		if _, ok := c.Route(nav.Route); !ok {
			return fmt.Errorf("config: navigation %q refers to unknown route %q", name, nav.Route)
		}
	}
	return nil
}

// Route returns the route with the given name.
func (c *Config) Route(name string) (Route, bool) {
	for _, r := range c.Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// EntitySet returns the entity set the application routes on. An explicit
// App.EntitySet wins; otherwise it is the entity set of the target shown by
// the route with an empty pattern, or, for a single-route application, the
// entity set addressed by that route's pattern.
func (c *Config) EntitySet() string {
	if c.App.EntitySet != "" {
		return c.App.EntitySet
	}
	for _, r := range c.Routes {
		if strings.ReplaceAll(r.Pattern, constants.QueryPlaceholder, "") != "" {
			continue
		}
		for _, name := range r.Targets {
			if set := c.Targets[name].EntitySet; set != "" {
				return set
			}
		}
	}
	if len(c.Routes) == 1 {
		p, _, _ := strings.Cut(c.Routes[0].Pattern, "(")
		return p
	}
	return ""
}
