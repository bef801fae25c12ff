// Package config loads the catsieve HCL configuration file: which wiki
// to talk to, the solver bounds, what to snapshot, and the lists the
// refresher maintains.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/catsieve/internal/solve"
)

// Config is the root of the configuration file.
type Config struct {
	Wiki     Wiki      `hcl:"wiki,block"`
	Limits   *Bounds   `hcl:"limits,block"`
	Snapshot *Snapshot `hcl:"snapshot,block"`
	Lists    []List    `hcl:"list,block"`
}

// Wiki names the MediaWiki endpoint and the politeness settings for it.
type Wiki struct {
	Endpoint  string   `hcl:"endpoint"`
	RateLimit *float64 `hcl:"rate_limit"` // requests per second
	UserAgent *string  `hcl:"user_agent"`
}

// Bounds are solver limits; nil fields fall back to defaults.
type Bounds struct {
	MaxDepth       *int `hcl:"max_depth"`
	MaxPages       *int `hcl:"max_pages"`
	TimeoutSeconds *int `hcl:"timeout_seconds"`
}

// Snapshot configures what the snapshot command captures.
type Snapshot struct {
	Path  string   `hcl:"path"`
	Roots []string `hcl:"roots"`
	Depth int      `hcl:"depth"`
	Links *bool    `hcl:"links"`
}

// List is one maintained page list: a named query plus optional
// per-list bound overrides.
type List struct {
	Name           string  `hcl:"name,label"`
	Query          string  `hcl:"query"`
	MaxDepth       *int    `hcl:"max_depth"`
	MaxPages       *int    `hcl:"max_pages"`
	TimeoutSeconds *int    `hcl:"timeout_seconds"`
	Target         *string `hcl:"target"` // page the list is published to
}

// Load reads and decodes a configuration file.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Wiki.Endpoint == "" {
		return fmt.Errorf("wiki block needs an endpoint")
	}
	seen := make(map[string]bool, len(c.Lists))
	for _, l := range c.Lists {
		if l.Query == "" {
			return fmt.Errorf("list %q has no query", l.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("duplicate list %q", l.Name)
		}
		seen[l.Name] = true
	}
	if c.Snapshot != nil && len(c.Snapshot.Roots) == 0 {
		return fmt.Errorf("snapshot block needs at least one root")
	}
	return nil
}

// SolveLimits merges the config-wide bounds into the solver defaults.
func (c *Config) SolveLimits() solve.Limits {
	return mergeBounds(solve.DefaultLimits(), c.Limits)
}

// ListLimits is SolveLimits with one list's overrides applied on top.
func (c *Config) ListLimits(l List) solve.Limits {
	base := c.SolveLimits()
	return mergeBounds(base, &Bounds{
		MaxDepth:       l.MaxDepth,
		MaxPages:       l.MaxPages,
		TimeoutSeconds: l.TimeoutSeconds,
	})
}

func mergeBounds(base solve.Limits, b *Bounds) solve.Limits {
	if b == nil {
		return base
	}
	if b.MaxDepth != nil {
		base.MaxDepth = *b.MaxDepth
	}
	if b.MaxPages != nil {
		base.MaxPages = *b.MaxPages
	}
	if b.TimeoutSeconds != nil {
		base.Timeout = time.Duration(*b.TimeoutSeconds) * time.Second
	}
	return base
}
