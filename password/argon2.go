package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	minPassBytes          = 8
	algorithmID           = "argon2id"
)

// Config defines a public type used by backoffice APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2 hashes passwords with argon2id. Safe for concurrent use.
type Argon2 struct {
	config Config
}

// phcHash is a decoded PHC string. The embedded parameters already
// satisfy the package minimums; decodePHC rejects anything weaker.
type phcHash struct {
	params Config
	salt   []byte
	hash   []byte
}

// NewArgon2 validates cfg against the package minimums and returns a
// hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives an argon2id hash for password and returns it in the PHC
// string format.
//
// Hash may return an error when input validation, dependency calls, or security checks fail.
// Hash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Argon2) Hash(password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if len(password) < minPassBytes {
		return "", errors.New("password must be at least 8 bytes")
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := a.deriveKey(password, salt, a.config)

	return fmt.Sprintf(
		"$%s$v=%d$%s$%s$%s",
		algorithmID,
		argon2.Version,
		renderParams(a.config),
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters embedded in
// encodedHash and compares in constant time.
//
// Verify may return an error when input validation, dependency calls, or security checks fail.
// Verify does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	decoded, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	computed := a.deriveKey(password, decoded.salt, decoded.params)
	return subtle.ConstantTimeCompare(computed, decoded.hash) == 1, nil
}

// NeedsUpgrade reports whether encodedHash was produced with weaker
// parameters than the current configuration.
func (a *Argon2) NeedsUpgrade(encodedHash string) (bool, error) {
	decoded, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	weaker := a.config.Memory > decoded.params.Memory ||
		a.config.Time > decoded.params.Time ||
		a.config.Parallelism > decoded.params.Parallelism ||
		a.config.KeyLength != decoded.params.KeyLength
	return weaker, nil
}

func (a *Argon2) deriveKey(password string, salt []byte, params Config) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		params.Time,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)
}

func renderParams(cfg Config) string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", cfg.Memory, cfg.Time, cfg.Parallelism)
}

// decodePHC splits and validates a full PHC string, in the format Hash
// produces. Parameters below the package minimums are rejected, so a
// doctored hash cannot downgrade the work factor.
func decodePHC(encodedHash string) (*phcHash, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid PHC format")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported algorithm")
	}

	var version int
	if n, err := fmt.Sscanf(parts[2], "v=%d", &version); n != 1 || err != nil {
		return nil, errors.New("invalid argon2 version")
	}
	if version != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	var params Config
	if n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Time, &params.Parallelism); n != 3 || err != nil {
		return nil, errors.New("invalid parameter format")
	}
	// Sscanf tolerates trailing input; a strict round trip does not.
	if renderParams(params) != parts[3] {
		return nil, errors.New("invalid parameter format")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	hash, err := base64.StdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid hash encoding")
	}
	if len(hash) == 0 {
		return nil, errors.New("invalid hash length")
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(hash))
	if params.Memory < minMemoryKB || params.Time < minTimeCost ||
		params.Parallelism < minParallelism || params.SaltLength < minSaltLength {
		return nil, errors.New("parameters below minimum")
	}

	return &phcHash{params: params, salt: salt, hash: hash}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}

	return nil
}
