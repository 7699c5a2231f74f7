package backoffice

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by backoffice APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT       JWTConfig
	Session   SessionConfig
	Password  PasswordConfig
	Security  SecurityConfig
	DevAuth   DevAuthConfig
	Directory DirectoryConfig
	Storage   StorageConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

// JWTConfig defines a public type used by backoffice APIs.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// SessionConfig defines a public type used by backoffice APIs.
type SessionConfig struct {
	RedisPrefix string
	TTL         time.Duration

	// RevalidateAfter bounds how long a cached session is adopted
	// without a fresh staff-directory cross-check. Zero disables
	// revalidation (cache trusted until TTL or logout).
	RevalidateAfter time.Duration
}

// PasswordConfig defines a public type used by backoffice APIs.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityConfig defines a public type used by backoffice APIs.
type SecurityConfig struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// DevAuthConfig controls the development credential fallback. Allow is
// resolved exactly once at startup; no call site re-derives it from
// hostnames or environment lookups.
type DevAuthConfig struct {
	Allow       bool
	Users       map[string]string // identifier -> secret
	DisplayName string
}

// DirectoryConfig defines a public type used by backoffice APIs.
type DirectoryConfig struct {
	RedisPrefix string

	// DefaultRole names the role assigned when staff creation omits an
	// explicit role reference.
	DefaultRole string
}

// StorageConfig defines a public type used by backoffice APIs.
type StorageConfig struct {
	RedisPrefix    string
	Buckets        []string
	PublicBaseURL  string
	MaxObjectBytes int64
}

// AuditConfig defines a public type used by backoffice APIs.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by backoffice APIs.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production baseline configuration. The dev
// auth fallback is off; callers opt in explicitly.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
			Issuer:        "backoffice",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix:     "bo",
			TTL:             12 * time.Hour,
			RevalidateAfter: 15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			EnableIPThrottle:      true,
			MaxLoginAttempts:      8,
			LoginCooldownDuration: 10 * time.Minute,
		},
		DevAuth: DevAuthConfig{
			Allow:       false,
			DisplayName: "Development Admin",
		},
		Directory: DirectoryConfig{
			RedisPrefix: "bod",
			DefaultRole: "editor",
		},
		Storage: StorageConfig{
			RedisPrefix:    "boobj",
			Buckets:        []string{"gallery", "carousel", "astrologers", "services"},
			PublicBaseURL:  "",
			MaxObjectBytes: 8 << 20,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks configuration invariants. Build calls it; callers that
// assemble Config by hand may call it early for better error locality.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "hs256", "ed25519":
	default:
		return errors.New("JWT.SigningMethod must be hs256 or ed25519")
	}
	if c.Session.TTL <= 0 {
		return errors.New("Session.TTL must be positive")
	}
	if c.Session.RevalidateAfter < 0 {
		return errors.New("Session.RevalidateAfter cannot be negative")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("Session.RedisPrefix required")
	}
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security.MaxLoginAttempts must be positive")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security.LoginCooldownDuration must be positive")
	}
	if c.DevAuth.Allow && len(c.DevAuth.Users) == 0 {
		return errors.New("DevAuth.Allow requires at least one dev credential pair")
	}
	if c.Directory.RedisPrefix == "" {
		return errors.New("Directory.RedisPrefix required")
	}
	if c.Directory.DefaultRole == "" {
		return errors.New("Directory.DefaultRole required")
	}
	if c.Storage.MaxObjectBytes <= 0 {
		return errors.New("Storage.MaxObjectBytes must be positive")
	}
	if len(c.Storage.Buckets) == 0 {
		return errors.New("Storage.Buckets must list at least one bucket")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Storage.Buckets = append([]string(nil), cfg.Storage.Buckets...)
	if cfg.DevAuth.Users != nil {
		out.DevAuth.Users = make(map[string]string, len(cfg.DevAuth.Users))
		for k, v := range cfg.DevAuth.Users {
			out.DevAuth.Users[k] = v
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
