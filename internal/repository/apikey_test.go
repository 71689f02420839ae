//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredAPIKey(orgID, hash string) *domain.APIKey {
	return domain.NewAPIKey(uuid.NewString(), orgID, "ci key", hash, time.Now().UTC().Truncate(time.Microsecond), nil)
}

func TestAPIKeyRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	orgRepo := NewOrgRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	org := setupOrg(ctx, t, orgRepo)
	key := newStoredAPIKey(org.ID, "aabbcc")
	require.NoError(t, keyRepo.Create(ctx, key))

	byID, err := keyRepo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	assert.Equal(t, org.ID, byID.OrgID)
	assert.Equal(t, "ci key", byID.Name)
	assert.Equal(t, "aabbcc", byID.KeyHash)
	assert.Nil(t, byID.RevokedAt)

	byHash, err := keyRepo.GetByHash(ctx, "aabbcc")
	require.NoError(t, err)
	assert.Equal(t, key.ID, byHash.ID)

	_, err = keyRepo.GetByHash(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_Create_DuplicateHash(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	orgRepo := NewOrgRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	org := setupOrg(ctx, t, orgRepo)
	require.NoError(t, keyRepo.Create(ctx, newStoredAPIKey(org.ID, "aabbcc")))

	err := keyRepo.Create(ctx, newStoredAPIKey(org.ID, "aabbcc"))
	assert.Error(t, err)
}

func TestAPIKeyRepository_GetByOrgID(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	orgRepo := NewOrgRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	org := setupOrg(ctx, t, orgRepo)
	other := domain.NewOrganization(uuid.NewString(), "Other Org", time.Now().UTC())
	require.NoError(t, orgRepo.Create(ctx, other))

	require.NoError(t, keyRepo.Create(ctx, newStoredAPIKey(org.ID, "hash-1")))
	require.NoError(t, keyRepo.Create(ctx, newStoredAPIKey(org.ID, "hash-2")))
	require.NoError(t, keyRepo.Create(ctx, newStoredAPIKey(other.ID, "hash-3")))

	keys, err := keyRepo.GetByOrgID(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	for _, k := range keys {
		assert.Equal(t, org.ID, k.OrgID)
	}
}

func TestAPIKeyRepository_Revoke(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	orgRepo := NewOrgRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	org := setupOrg(ctx, t, orgRepo)
	key := newStoredAPIKey(org.ID, "aabbcc")
	require.NoError(t, keyRepo.Create(ctx, key))

	require.NoError(t, keyRepo.Revoke(ctx, key.ID))

	retrieved, err := keyRepo.GetByID(ctx, key.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.RevokedAt)

	// Revoking an already revoked key changes nothing.
	err = keyRepo.Revoke(ctx, key.ID)
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}

func TestAPIKeyRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	orgRepo := NewOrgRepository(pool)
	keyRepo := NewAPIKeyRepository(pool)

	org := setupOrg(ctx, t, orgRepo)
	key := newStoredAPIKey(org.ID, "aabbcc")
	require.NoError(t, keyRepo.Create(ctx, key))

	require.NoError(t, keyRepo.Delete(ctx, key.ID))

	_, err := keyRepo.GetByID(ctx, key.ID)
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)

	err = keyRepo.Delete(ctx, key.ID)
	assert.ErrorIs(t, err, domain.ErrAPIKeyNotFound)
}
