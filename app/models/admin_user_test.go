package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAdminUserCheckPassword(t *testing.T) {
	hash, err := HashAdminPassword("correct horse")
	require.NoError(t, err)

	now := time.Now()
	admin := AdminUser{PasswordHash: hash, FailedAttempts: 3}

	assert.True(t, admin.CheckPassword("correct horse", now))
	assert.Equal(t, 0, admin.FailedAttempts)
	assert.Nil(t, admin.LockedUntil)

	assert.False(t, admin.CheckPassword("wrong", now))
	assert.Equal(t, 1, admin.FailedAttempts)
	assert.Nil(t, admin.LockedUntil)
}

func TestAdminUserLockoutAfterRepeatedFailures(t *testing.T) {
	hash, err := HashAdminPassword("secret")
	require.NoError(t, err)

	now := time.Now()
	admin := AdminUser{PasswordHash: hash}

	for i := 0; i < adminMaxFailedAttempts; i++ {
		assert.False(t, admin.CheckPassword("nope", now))
	}

	require.NotNil(t, admin.LockedUntil)
	assert.True(t, admin.IsLocked(now))
	assert.True(t, admin.IsLocked(now.Add(adminLockoutDuration-time.Second)))
	assert.False(t, admin.IsLocked(now.Add(adminLockoutDuration+time.Second)))
}

func TestAdminUserSuccessfulLoginClearsLock(t *testing.T) {
	hash, err := HashAdminPassword("secret")
	require.NoError(t, err)

	now := time.Now()
	until := now.Add(-time.Minute)
	admin := AdminUser{PasswordHash: hash, FailedAttempts: 5, LockedUntil: &until}

	assert.False(t, admin.IsLocked(now))
	assert.True(t, admin.CheckPassword("secret", now))
	assert.Equal(t, 0, admin.FailedAttempts)
	assert.Nil(t, admin.LockedUntil)
}

func TestHashAdminPassword(t *testing.T) {
	hash, err := HashAdminPassword("pw123456")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw123456")))
}
