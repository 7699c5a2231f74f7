package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	backoffice "github.com/omjyotish/backoffice"
	"github.com/omjyotish/backoffice/httpapi"
	"github.com/omjyotish/backoffice/permission"
)

func main() {
	// Environment is read once here. Nothing below this function
	// consults it again.
	var (
		redisAddr     = envOr("BACKOFFICE_REDIS_ADDR", "localhost:6379")
		jwtSecret     = os.Getenv("BACKOFFICE_JWT_SECRET")
		serviceKey    = os.Getenv("BACKOFFICE_SERVICE_KEY")
		creationToken = os.Getenv("BACKOFFICE_ADMIN_CREATION_TOKEN")
		publicBaseURL = envOr("BACKOFFICE_PUBLIC_BASE_URL", "http://localhost:8080")
		listenAddr    = envOr("BACKOFFICE_LISTEN", ":8080")
		devAuth       = os.Getenv("BACKOFFICE_DEV_AUTH") == "1"
	)

	if jwtSecret == "" {
		log.Fatal("BACKOFFICE_JWT_SECRET is required")
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()

	cfg := backoffice.DefaultConfig()
	cfg.JWT.PrivateKey = []byte(jwtSecret)
	cfg.Storage.PublicBaseURL = publicBaseURL

	builder := backoffice.New().
		WithConfig(cfg).
		WithRedis(client).
		WithPermissions(permission.DefaultTags()).
		WithAuditSink(backoffice.NewJSONWriterSink(os.Stdout))

	if serviceKey != "" {
		builder = builder.WithServiceKey(serviceKey)
	} else {
		log.Print("BACKOFFICE_SERVICE_KEY not set; staff creation and uploads disabled")
	}

	if devAuth {
		user := envOr("BACKOFFICE_DEV_USER", "dev@localhost")
		pass := os.Getenv("BACKOFFICE_DEV_PASS")
		if pass == "" {
			log.Fatal("BACKOFFICE_DEV_AUTH=1 requires BACKOFFICE_DEV_PASS")
		}
		log.Print("development auth fallback ENABLED; do not run this in production")
		builder = builder.WithDevAuth(map[string]string{user: pass})
	}

	engine, err := builder.Build()
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedRoles(ctx, engine); err != nil {
		log.Fatalf("seed roles: %v", err)
	}
	if err := bootstrapAdmin(ctx, engine); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	server := httpapi.NewServer(engine, httpapi.Config{
		AdminCreationToken: creationToken,
		CookieSecure:       strings.HasPrefix(publicBaseURL, "https://"),
	})

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s", listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}

func seedRoles(ctx context.Context, engine *backoffice.Engine) error {
	roles := []struct {
		name  string
		perms []string
	}{
		{"administrator", permission.DefaultTags()},
		{"editor", []string{permission.TagContentManagement, permission.TagMediaManagement}},
		{"manager", []string{permission.TagBookingManagement, permission.TagContentManagement}},
	}
	for _, r := range roles {
		if _, err := engine.EnsureRole(ctx, r.name, r.perms); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapAdmin provisions the first administrator account when the
// directory is empty and credentials are supplied via environment.
func bootstrapAdmin(ctx context.Context, engine *backoffice.Engine) error {
	email := os.Getenv("BACKOFFICE_BOOTSTRAP_EMAIL")
	pass := os.Getenv("BACKOFFICE_BOOTSTRAP_PASSWORD")
	if email == "" || pass == "" {
		return nil
	}

	staff, err := engine.ListStaff(ctx)
	if err != nil {
		return err
	}
	if len(staff) > 0 {
		return nil
	}

	role, err := engine.EnsureRole(ctx, "administrator", permission.DefaultTags())
	if err != nil {
		return err
	}

	_, err = engine.CreateStaff(ctx, backoffice.CreateStaffInput{
		FirstName: "Admin",
		Email:     email,
		Password:  pass,
		RoleID:    role.ID,
	})
	if err != nil && !errors.Is(err, backoffice.ErrDuplicateEmail) {
		return err
	}
	log.Printf("bootstrapped administrator %s", email)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
