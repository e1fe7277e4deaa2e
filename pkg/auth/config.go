package auth

import (
	"fmt"
	"os"
)

// Identity modes accepted by Config.Mode.
const (
	ModeOIDC   = "oidc"
	ModeHeader = "header"
)

// Config selects how principals are resolved. Mode has no default.
// Header mode trusts X-User-Id / X-User-Roles set by an upstream gateway
// and is only safe when that gateway strips client-supplied copies.
type Config struct {
	Mode       string `toml:"mode"`
	Issuer     string `toml:"issuer"`
	ClientID   string `toml:"client_id"`
	RolesClaim string `toml:"roles_claim"`
	AdminRole  string `toml:"admin_role"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Mode       string
	Issuer     string
	ClientID   string
	RolesClaim string
	AdminRole  string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.RolesClaim != "" {
		c.RolesClaim = overlay.RolesClaim
	}
	if overlay.AdminRole != "" {
		c.AdminRole = overlay.AdminRole
	}
}

func (c *Config) loadDefaults() {
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
	if c.AdminRole == "" {
		c.AdminRole = "admin"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Mode, &c.Mode)
	set(env.Issuer, &c.Issuer)
	set(env.ClientID, &c.ClientID)
	set(env.RolesClaim, &c.RolesClaim)
	set(env.AdminRole, &c.AdminRole)
}

func (c *Config) validate() error {
	switch c.Mode {
	case "":
		return fmt.Errorf("mode required (%s or %s)", ModeOIDC, ModeHeader)
	case ModeHeader:
		return nil
	case ModeOIDC:
		if c.Issuer == "" {
			return fmt.Errorf("issuer required for oidc mode")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id required for oidc mode")
		}
		return nil
	default:
		return fmt.Errorf("unsupported mode: %s", c.Mode)
	}
}
