package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.db)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.NotEqual(t, "s3cret", u.Password) // 存的是哈希

	got, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.db)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@example.com", "x")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "b@example.com", "x")
	require.ErrorIs(t, err, ErrUserExists)
}

func TestUserGet(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUserService(e.db)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "a@example.com", "x")
	require.NoError(t, err)

	got, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Username)

	_, err = svc.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}
