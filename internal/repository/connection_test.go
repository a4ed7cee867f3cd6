package repository

import (
	"context"
	"testing"

	"pronet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRepository_CreateAndGetBetweenUsers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	conn := &models.Connection{
		RequesterID: alice.ID,
		ReceiverID:  bob.ID,
		Status:      models.ConnectionStatusPending,
	}
	require.NoError(t, repo.Create(ctx, conn))

	// Lookup works in either direction.
	found, err := repo.GetBetweenUsers(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, conn.ID, found.ID)
	assert.Equal(t, models.ConnectionStatusPending, found.Status)

	none, err := repo.GetBetweenUsers(ctx, alice.ID, 999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestConnectionRepository_OneRowPerPair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	require.NoError(t, repo.Create(ctx, &models.Connection{
		RequesterID: alice.ID, ReceiverID: bob.ID, Status: models.ConnectionStatusPending,
	}))

	// A second request, even from the other direction, hits the pair key
	// unique index.
	err := repo.Create(ctx, &models.Connection{
		RequesterID: bob.ID, ReceiverID: alice.ID, Status: models.ConnectionStatusPending,
	})
	assert.Error(t, err)
}

func TestConnectionRepository_RequestLists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")
	carol := createTestUser(t, db, "Carol", "carol@example.com")

	require.NoError(t, repo.Create(ctx, &models.Connection{
		RequesterID: alice.ID, ReceiverID: bob.ID, Status: models.ConnectionStatusPending,
	}))
	require.NoError(t, repo.Create(ctx, &models.Connection{
		RequesterID: carol.ID, ReceiverID: alice.ID, Status: models.ConnectionStatusPending,
	}))

	pending, err := repo.GetPendingRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, carol.ID, pending[0].RequesterID)
	assert.Equal(t, "Carol", pending[0].Requester.FullName)

	sent, err := repo.GetSentRequests(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, bob.ID, sent[0].ReceiverID)
}

func TestConnectionRepository_AcceptAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")
	carol := createTestUser(t, db, "Carol", "carol@example.com")

	ab := &models.Connection{RequesterID: alice.ID, ReceiverID: bob.ID, Status: models.ConnectionStatusPending}
	ac := &models.Connection{RequesterID: alice.ID, ReceiverID: carol.ID, Status: models.ConnectionStatusPending}
	require.NoError(t, repo.Create(ctx, ab))
	require.NoError(t, repo.Create(ctx, ac))

	require.NoError(t, repo.UpdateStatus(ctx, ab.ID, models.ConnectionStatusAccepted))
	require.NoError(t, repo.UpdateStatus(ctx, ac.ID, models.ConnectionStatusRejected))

	users, err := repo.GetConnectedUsers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bob.ID, users[0].ID)

	// Bob sees Alice from his side.
	users, err = repo.GetConnectedUsers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)

	// Rejected requests never show up as pending again.
	pending, err := repo.GetPendingRequests(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestConnectionRepository_UpdateStatusNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConnectionRepository(db)

	err := repo.UpdateStatus(context.Background(), 12345, models.ConnectionStatusAccepted)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestConnectionRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewConnectionRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "Alice", "alice@example.com")
	bob := createTestUser(t, db, "Bob", "bob@example.com")

	conn := &models.Connection{RequesterID: alice.ID, ReceiverID: bob.ID, Status: models.ConnectionStatusAccepted}
	require.NoError(t, repo.Create(ctx, conn))
	require.NoError(t, repo.Delete(ctx, conn.ID))

	found, err := repo.GetBetweenUsers(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Pair is free again after removal.
	require.NoError(t, repo.Create(ctx, &models.Connection{
		RequesterID: bob.ID, ReceiverID: alice.ID, Status: models.ConnectionStatusPending,
	}))
}
