package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	hash, err := svc.Hash("correct horse battery staple")
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.NoError(t, svc.Verify(hash, "correct horse battery staple"))
	assert.Error(t, svc.Verify(hash, "wrong password"))
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	_, err := svc.Hash(strings.Repeat("a", 73))
	assert.Error(t, err, "bcrypt truncates past 72 bytes, so longer inputs are rejected")

	_, err = svc.Hash(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestHashesAreSalted(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	h1, err := svc.Hash("same password")
	require.NoError(t, err)
	h2, err := svc.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestVerifyGarbageHash(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	assert.Error(t, svc.Verify("not a bcrypt hash", "whatever"))
}
