// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("produces valid hash", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	})

	t.Run("different passwords produce different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("password1")
		require.NoError(t, err)
		hash2, err := hasher.Hash("password2")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("same password produces different hashes (salt)", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		assert.Error(t, err)
	})
}

func TestVerifyPassword(t *testing.T) {
	hasher := auth.NewArgon2idHasher()

	t.Run("correct password verifies", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		hash, err := hasher.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid hash format returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "not-a-valid-hash")
		assert.Error(t, err)
	})

	t.Run("wrong algorithm returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported hash algorithm")
	})

	t.Run("invalid parameters format returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=19$invalid$c2FsdA$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("invalid salt base64 returns error", func(t *testing.T) {
		_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p=4$!!!invalid!!!$aGFzaA")
		assert.Error(t, err)
	})

	t.Run("threads overflow returns error", func(t *testing.T) {
		// threads=256 exceeds uint8 max (255)
		_, err := hasher.Verify("password", "$argon2id$v=19$m=65536,t=1,p=256$c2FsdA$aGFzaA")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "threads value")
	})
}

func TestCheckPasswordStrength(t *testing.T) {
	t.Run("strong password passes", func(t *testing.T) {
		res := auth.CheckPasswordStrength("Str0ng!pass")
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	t.Run("accumulates all violations", func(t *testing.T) {
		res := auth.CheckPasswordStrength("abc")
		assert.False(t, res.Valid)
		// too short, no upper, no digit, no special
		assert.Len(t, res.Errors, 4)
	})

	t.Run("reports missing character classes individually", func(t *testing.T) {
		cases := map[string]string{
			"alllower1!aa": "uppercase",
			"ALLUPPER1!AA": "lowercase",
			"NoDigits!here": "digit",
			"NoSpecial1here": "special",
		}
		for pw, want := range cases {
			res := auth.CheckPasswordStrength(pw)
			assert.False(t, res.Valid, pw)
			require.Len(t, res.Errors, 1, pw)
			assert.Contains(t, res.Errors[0], want, pw)
		}
	})

	t.Run("rejects overlong password", func(t *testing.T) {
		res := auth.CheckPasswordStrength("Aa1!" + strings.Repeat("x", 130))
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0], "128")
	})
}
