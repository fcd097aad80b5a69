// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

// Package authz decides which role may call which API route, using a
// Casbin RBAC model with path patterns (keyMatch2).
//
// Roles inherit: admin > user > anonymous. Actions are read, write and
// delete, derived from the HTTP method. The model and policy are embedded;
// a policy file can replace the policy for deployments that need to.
package authz

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/indieforge/internal/config"
	"github.com/tomtom215/indieforge/internal/models"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Actions.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// PolicyPath replaces the embedded policy when set.
	PolicyPath string

	// DefaultRole is used for authenticated callers without a role.
	DefaultRole string

	CacheEnabled bool
	CacheTTL     time.Duration
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		DefaultRole:  models.RoleUser,
		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
	}
}

// ConfigFrom builds the enforcer configuration from the security settings.
func ConfigFrom(cfg *config.CasbinConfig) *EnforcerConfig {
	out := DefaultEnforcerConfig()
	if cfg == nil {
		return out
	}
	if cfg.DefaultRole != "" {
		out.DefaultRole = cfg.DefaultRole
	}
	out.CacheEnabled = cfg.CacheEnabled
	if cfg.CacheTTL > 0 {
		out.CacheTTL = cfg.CacheTTL
	}
	return out
}

// Enforcer wraps the Casbin enforcer with a decision cache.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *enforcementCache
}

// NewEnforcer creates a new authorization enforcer.
func NewEnforcer(_ context.Context, cfg *EnforcerConfig) (*Enforcer, error) {
	if cfg == nil {
		cfg = DefaultEnforcerConfig()
	}

	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" {
		if _, statErr := os.Stat(cfg.PolicyPath); statErr != nil {
			return nil, fmt.Errorf("policy file: %w", statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{config: cfg, enforcer: enforcer}
	if cfg.CacheEnabled {
		e.cache = newEnforcementCache(cfg.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// RoleOf returns the role a caller is checked as.
func (e *Enforcer) RoleOf(actor *models.Actor) string {
	if actor == nil {
		return models.RoleAnonymous
	}
	if actor.Role == "" {
		return e.config.DefaultRole
	}
	return actor.Role
}

// Enforce checks if role may perform action on object (a request path).
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	start := time.Now()

	if e.cache != nil {
		if allowed, ok := e.cache.get(role, object, action); ok {
			recordDecision(role, action, allowed, time.Since(start), true)
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.set(role, object, action, allowed)
	}
	recordDecision(role, action, allowed, time.Since(start), false)
	return allowed, nil
}

// Allowed is Enforce for an actor, treating errors as a denial.
func (e *Enforcer) Allowed(actor *models.Actor, object, action string) bool {
	ok, err := e.Enforce(e.RoleOf(actor), object, action)
	return err == nil && ok
}

// GetPolicy returns all policy rules.
func (e *Enforcer) GetPolicy() [][]string {
	policies, _ := e.enforcer.GetPolicy()
	return policies
}

// GetRolesForUser returns the roles role inherits from directly.
func (e *Enforcer) GetRolesForUser(role string) ([]string, error) {
	return e.enforcer.GetRolesForUser(role)
}

// Close stops the cache janitor.
func (e *Enforcer) Close() {
	if e.cache != nil {
		e.cache.stop()
	}
}
