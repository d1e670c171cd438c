package services

import (
	"context"
	"testing"

	"charityops_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientResolver_AllAdmins(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	admins := seedAdmins(t, db, 2)
	resolver := NewRecipientResolver(repositories.NewUserRepository(db))

	ids, err := resolver.Resolve(context.Background(), AllAdmins())
	require.NoError(t, err)
	assert.ElementsMatch(t, admins, ids)
}

func TestRecipientResolver_ExplicitList(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	resolver := NewRecipientResolver(repositories.NewUserRepository(db))

	// Explicit lists pass through untouched: no roster lookup.
	ids, err := resolver.Resolve(context.Background(), Recipients("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRecipientResolver_EmptyRosterIsNotAnError(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	resolver := NewRecipientResolver(repositories.NewUserRepository(db))

	ids, err := resolver.Resolve(context.Background(), AllAdmins())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
