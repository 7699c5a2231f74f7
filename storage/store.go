package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrBucketUnknown is an exported constant or variable used by the back-office engine.
	ErrBucketUnknown = errors.New("unknown storage bucket")
	// ErrTooLarge is an exported constant or variable used by the back-office engine.
	ErrTooLarge = errors.New("object exceeds size limit")
	// ErrNotFound is an exported constant or variable used by the back-office engine.
	ErrNotFound = errors.New("object not found")
	// ErrUnavailable is an exported constant or variable used by the back-office engine.
	ErrUnavailable = errors.New("object store unavailable")
)

// Config holds object store settings.
type Config struct {
	RedisPrefix    string
	Buckets        []string
	PublicBaseURL  string
	MaxObjectBytes int64
}

// Object describes a stored object without its payload.
type Object struct {
	Bucket      string `json:"bucket"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   int64  `json:"created_at"`
}

// Store persists objects in Redis hashes.
type Store struct {
	redis   redis.UniversalClient
	config  Config
	buckets map[string]struct{}
}

// NewStore creates a [Store] from cfg.
func NewStore(redisClient redis.UniversalClient, cfg Config) *Store {
	buckets := make(map[string]struct{}, len(cfg.Buckets))
	for _, b := range cfg.Buckets {
		buckets[b] = struct{}{}
	}
	return &Store{
		redis:   redisClient,
		config:  cfg,
		buckets: buckets,
	}
}

// KnownBucket reports whether bucket is on the allowlist.
func (s *Store) KnownBucket(bucket string) bool {
	_, ok := s.buckets[bucket]
	return ok
}

// Put stores data under a generated key in bucket and returns the
// object metadata plus its public URL. The key embeds the upload time
// and a random suffix so concurrent uploads never collide; only the
// extension of filename survives into the key. An optional folder
// becomes a sanitized prefix on the key.
func (s *Store) Put(ctx context.Context, bucket, folder, filename, contentType string, data []byte) (*Object, string, error) {
	if !s.KnownBucket(bucket) {
		return nil, "", ErrBucketUnknown
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty object payload")
	}
	if s.config.MaxObjectBytes > 0 && int64(len(data)) > s.config.MaxObjectBytes {
		return nil, "", ErrTooLarge
	}

	now := time.Now()
	key := objectName(now, filename)
	if prefix := sanitizeFolder(folder); prefix != "" {
		key = prefix + "/" + key
	}

	obj := Object{
		Bucket:      bucket,
		Path:        key,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   now.Unix(),
	}

	pipe := s.redis.TxPipeline()
	pipe.HSet(ctx, s.objectKey(bucket, key), map[string]interface{}{
		"content_type": contentType,
		"size":         strconv.FormatInt(obj.Size, 10),
		"created_at":   strconv.FormatInt(obj.CreatedAt, 10),
		"data":         data,
	})
	pipe.SAdd(ctx, s.bucketIndexKey(bucket), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &obj, s.PublicURL(bucket, key), nil
}

// Get loads an object and its payload.
func (s *Store) Get(ctx context.Context, bucket, objectPath string) (*Object, []byte, error) {
	if !s.KnownBucket(bucket) {
		return nil, nil, ErrBucketUnknown
	}

	fields, err := s.redis.HGetAll(ctx, s.objectKey(bucket, objectPath)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil, ErrNotFound
	}

	size, _ := strconv.ParseInt(fields["size"], 10, 64)
	createdAt, _ := strconv.ParseInt(fields["created_at"], 10, 64)
	obj := &Object{
		Bucket:      bucket,
		Path:        objectPath,
		ContentType: fields["content_type"],
		Size:        size,
		CreatedAt:   createdAt,
	}
	return obj, []byte(fields["data"]), nil
}

// Delete removes an object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, bucket, objectPath string) error {
	if !s.KnownBucket(bucket) {
		return ErrBucketUnknown
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.objectKey(bucket, objectPath))
	pipe.SRem(ctx, s.bucketIndexKey(bucket), objectPath)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// List returns the object keys currently stored in bucket.
func (s *Store) List(ctx context.Context, bucket string) ([]string, error) {
	if !s.KnownBucket(bucket) {
		return nil, ErrBucketUnknown
	}
	keys, err := s.redis.SMembers(ctx, s.bucketIndexKey(bucket)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return keys, nil
}

// PublicURL builds the browser-facing URL for an object.
func (s *Store) PublicURL(bucket, objectPath string) string {
	base := strings.TrimRight(s.config.PublicBaseURL, "/")
	return base + "/media/" + bucket + "/" + objectPath
}

// sanitizeFolder reduces a caller-supplied folder to safe path
// segments: lowercased, slash-delimited, each segment limited to
// letters, digits, dash, and underscore. Dot segments and empty
// segments are dropped so the key can never escape the bucket.
func sanitizeFolder(folder string) string {
	folder = strings.ToLower(strings.Trim(folder, "/"))
	if folder == "" {
		return ""
	}

	parts := strings.FieldsFunc(folder, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		var b strings.Builder
		for _, r := range p {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			kept = append(kept, b.String())
		}
	}
	return strings.Join(kept, "/")
}

func objectName(now time.Time, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	// Strip anything that is not a plain extension.
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + suffix + ext
}

func (s *Store) objectKey(bucket, objectPath string) string {
	return s.config.RedisPrefix + ":" + bucket + ":" + objectPath
}

func (s *Store) bucketIndexKey(bucket string) string {
	return s.config.RedisPrefix + ":" + bucket + ":index"
}
