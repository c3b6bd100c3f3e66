package services

import (
	cryptorand "crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/gameportal/backend/internal/config"
)

// Scheme tags stored on credential records. Two schemes coexist: the
// game server's reversible base64 encoding and the portal's salted
// argon2id digest. Verification dispatches on the record's tag; adding
// a scheme means adding a variant here, not branching at call sites.
const (
	SchemeLegacyBase64 = "base64"
	SchemeLegacySHA256 = "sha256"
	SchemeArgon2ID     = "argon2id"
)

// HashScheme is the capability every password scheme provides.
type HashScheme interface {
	Encode(password string) (string, error)
	Matches(password, digest string) bool
}

// SchemeRegistry resolves a scheme tag to its implementation.
type SchemeRegistry struct {
	schemes map[string]HashScheme
}

func NewSchemeRegistry(cfg config.Argon2Config) *SchemeRegistry {
	return &SchemeRegistry{
		schemes: map[string]HashScheme{
			SchemeLegacyBase64: legacyBase64Scheme{},
			SchemeLegacySHA256: legacySHA256Scheme{},
			SchemeArgon2ID:     argon2idScheme{cfg: cfg},
		},
	}
}

func (r *SchemeRegistry) Get(name string) (HashScheme, error) {
	scheme, ok := r.schemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown hash scheme %q", name)
	}
	return scheme, nil
}

// legacyBase64Scheme is the game server's original encoding. It is
// reversible and kept only because the game server still reads it.
type legacyBase64Scheme struct{}

func (legacyBase64Scheme) Encode(password string) (string, error) {
	return base64.StdEncoding.EncodeToString([]byte(password)), nil
}

func (legacyBase64Scheme) Matches(password, digest string) bool {
	encoded := base64.StdEncoding.EncodeToString([]byte(password))
	return subtle.ConstantTimeCompare([]byte(encoded), []byte(digest)) == 1
}

// legacySHA256Scheme covers portal rows written before the argon2id
// migration: an unsalted SHA-256 digest in base64.
type legacySHA256Scheme struct{}

func (legacySHA256Scheme) Encode(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func (legacySHA256Scheme) Matches(password, digest string) bool {
	sum := sha256.Sum256([]byte(password))
	encoded := base64.StdEncoding.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(encoded), []byte(digest)) == 1
}

// argon2idScheme is the portal's current scheme: argon2id with a random
// salt, stored as base64(salt)$base64(hash).
type argon2idScheme struct {
	cfg config.Argon2Config
}

func (s argon2idScheme) Encode(password string) (string, error) {
	salt := make([]byte, s.cfg.SaltLength)
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, s.cfg.Time, s.cfg.Memory, s.cfg.Threads, s.cfg.KeyLength)
	return fmt.Sprintf("%s$%s",
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(hash)), nil
}

func (s argon2idScheme) Matches(password, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, s.cfg.Time, s.cfg.Memory, s.cfg.Threads, s.cfg.KeyLength)
	return subtle.ConstantTimeCompare(hash, computed) == 1
}
