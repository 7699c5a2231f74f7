package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is an exported constant or variable used by the back-office engine.
	ErrNotFound = errors.New("identity not found")
	// ErrEmailTaken is an exported constant or variable used by the back-office engine.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnavailable is an exported constant or variable used by the back-office engine.
	ErrUnavailable = errors.New("identity store unavailable")
)

// Record is a stored credential record.
type Record struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

// Store persists identity records in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] with the given key prefix.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Create stores rec and claims its email index. Returns
// [ErrEmailTaken] if another record already owns the address.
func (s *Store) Create(ctx context.Context, rec Record) error {
	if rec.UserID == "" || rec.Email == "" || rec.PasswordHash == "" {
		return errors.New("incomplete identity record")
	}

	ok, err := s.redis.SetNX(ctx, s.emailKey(rec.Email), rec.UserID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrEmailTaken
	}

	fields := map[string]interface{}{
		"user_id":       rec.UserID,
		"email":         rec.Email,
		"password_hash": rec.PasswordHash,
		"created_at":    strconv.FormatInt(rec.CreatedAt, 10),
	}
	if err := s.redis.HSet(ctx, s.userKey(rec.UserID), fields).Err(); err != nil {
		// Release the index so the address is not orphaned.
		_ = s.redis.Del(ctx, s.emailKey(rec.Email)).Err()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// GetByEmail resolves an email to its identity record.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Record, error) {
	userID, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return s.GetByID(ctx, userID)
}

// GetByID loads the identity record for userID.
func (s *Store) GetByID(ctx context.Context, userID string) (*Record, error) {
	fields, err := s.redis.HGetAll(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	return &Record{
		UserID:       fields["user_id"],
		Email:        fields["email"],
		PasswordHash: fields["password_hash"],
		CreatedAt:    createdAt,
	}, nil
}

// UpdatePasswordHash replaces the stored hash for userID.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	exists, err := s.redis.Exists(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	if err := s.redis.HSet(ctx, s.userKey(userID), "password_hash", hash).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes the record and its email index. Missing records are
// not an error, so a compensating delete after a failed creation is
// safe to retry.
func (s *Store) Delete(ctx context.Context, userID string) error {
	rec, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.redis.Del(ctx, s.userKey(userID), s.emailKey(rec.Email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":user:" + userID
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}
