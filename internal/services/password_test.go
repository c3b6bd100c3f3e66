package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gameportal/backend/internal/config"
)

func testArgon2Config() config.Argon2Config {
	return config.Argon2Config{
		Time:       1,
		Memory:     1024,
		Threads:    1,
		KeyLength:  32,
		SaltLength: 16,
	}
}

func TestSchemeRegistry(t *testing.T) {
	registry := NewSchemeRegistry(testArgon2Config())

	t.Run("resolves known schemes", func(t *testing.T) {
		for _, name := range []string{SchemeLegacyBase64, SchemeLegacySHA256, SchemeArgon2ID} {
			scheme, err := registry.Get(name)
			assert.NoError(t, err)
			assert.NotNil(t, scheme)
		}
	})

	t.Run("unknown scheme", func(t *testing.T) {
		_, err := registry.Get("md5")
		assert.Error(t, err)
	})
}

func TestHashSchemes(t *testing.T) {
	registry := NewSchemeRegistry(testArgon2Config())
	password := "pw123456"

	for _, name := range []string{SchemeLegacyBase64, SchemeLegacySHA256, SchemeArgon2ID} {
		t.Run(name, func(t *testing.T) {
			scheme, err := registry.Get(name)
			assert.NoError(t, err)

			digest, err := scheme.Encode(password)
			assert.NoError(t, err)
			assert.NotEmpty(t, digest)

			assert.True(t, scheme.Matches(password, digest))
			assert.False(t, scheme.Matches("wrongpassword", digest))
		})
	}
}

func TestCrossSchemeDigestsNeverMatch(t *testing.T) {
	registry := NewSchemeRegistry(testArgon2Config())
	password := "pw123456"

	names := []string{SchemeLegacyBase64, SchemeLegacySHA256, SchemeArgon2ID}
	for _, encodeWith := range names {
		encoder, _ := registry.Get(encodeWith)
		digest, err := encoder.Encode(password)
		assert.NoError(t, err)

		for _, matchWith := range names {
			if matchWith == encodeWith {
				continue
			}
			matcher, _ := registry.Get(matchWith)
			assert.False(t, matcher.Matches(password, digest),
				"digest encoded under %s must not verify under %s", encodeWith, matchWith)
		}
	}
}

func TestArgon2DigestsAreSalted(t *testing.T) {
	scheme := argon2idScheme{cfg: testArgon2Config()}

	first, err := scheme.Encode("pw123456")
	assert.NoError(t, err)
	second, err := scheme.Encode("pw123456")
	assert.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, scheme.Matches("pw123456", first))
	assert.True(t, scheme.Matches("pw123456", second))
}
