package backoffice

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/omjyotish/backoffice/internal/audit"
	"github.com/omjyotish/backoffice/internal/content"
	"github.com/omjyotish/backoffice/internal/directory"
	"github.com/omjyotish/backoffice/internal/identity"
	"github.com/omjyotish/backoffice/internal/rate"
	"github.com/omjyotish/backoffice/jwt"
	"github.com/omjyotish/backoffice/password"
	"github.com/omjyotish/backoffice/permission"
	"github.com/omjyotish/backoffice/session"
	"github.com/omjyotish/backoffice/storage"
)

// Builder defines a public type used by backoffice APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	permissions []string
	serviceKey  string
	auditSink   AuditSink

	built bool
}

// New returns a [Builder] preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing all stores.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithPermissions sets the capability tags the engine accepts. Most
// callers pass [permission.DefaultTags].
func (b *Builder) WithPermissions(perms []string) *Builder {
	b.permissions = perms
	return b
}

// WithServiceKey installs the elevated service credential. Engines
// built without it refuse privileged side effects with
// [ErrServiceCredentialMissing] instead of degrading silently.
func (b *Builder) WithServiceKey(key string) *Builder {
	b.serviceKey = key
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter recording.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the resolve latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithDevAuth enables the insecure development credential fallback
// with the given identifier/secret pairs. The decision is made here,
// once, at startup; nothing downstream re-derives it.
func (b *Builder) WithDevAuth(users map[string]string) *Builder {
	b.config.DevAuth.Allow = true
	if users != nil {
		b.config.DevAuth.Users = users
	}
	return b
}

// Build validates the assembled configuration and constructs the
// [Engine]. A builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(b.permissions) == 0 {
		return nil, errors.New("permissions must be provided")
	}

	// -------- PERMISSION REGISTRY --------
	registry := permission.NewRegistry()
	for _, p := range b.permissions {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	registry.Freeze()

	engine := &Engine{
		config:   cfg,
		registry: registry,
		sessions: session.NewStore(b.redis, cfg.Session.RedisPrefix),
	}

	engine.identities = identity.NewStore(b.redis, cfg.Directory.RedisPrefix+":id")
	engine.directory = directory.NewStore(b.redis, cfg.Directory.RedisPrefix)
	engine.content = content.NewStore(b.redis, cfg.Directory.RedisPrefix+":content")
	engine.objects = storage.NewStore(b.redis, storage.Config{
		RedisPrefix:    cfg.Storage.RedisPrefix,
		Buckets:        cfg.Storage.Buckets,
		PublicBaseURL:  cfg.Storage.PublicBaseURL,
		MaxObjectBytes: cfg.Storage.MaxObjectBytes,
	})
	engine.limiter = rate.New(b.redis, rate.Config{
		EnableIPThrottle:      cfg.Security.EnableIPThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
	})
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.serviceKey = b.serviceKey

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
