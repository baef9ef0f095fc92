package service

import (
	"context"
	"testing"

	"xinyuan_tech/billing-service/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFromContext(t *testing.T) {
	ctx := auth.WithIdentity(context.Background(), "u1", "u1@example.com", "w1")

	user, err := userFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, "w1", user.DefaultWorkspaceID)
}

func TestUserFromContext_MissingIdentity(t *testing.T) {
	_, err := userFromContext(context.Background())
	require.Error(t, err)
}
