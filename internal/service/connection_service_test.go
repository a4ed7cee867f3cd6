package service

import (
	"context"
	"testing"

	"pronet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionService_SendRequestValidation(t *testing.T) {
	svc := NewConnectionService(noopConnRepo(), noopUserRepo())

	_, err := svc.SendRequest(context.Background(), 1, 1)
	assertValidationError(t, err)
}

func TestConnectionService_SendRequestDuplicate(t *testing.T) {
	tests := []struct {
		name   string
		status models.ConnectionStatus
	}{
		{"already accepted", models.ConnectionStatusAccepted},
		{"already pending", models.ConnectionStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopConnRepo()
			repo.getBetweenUsersFn = func(_ context.Context, _, _ uint) (*models.Connection, error) {
				return &models.Connection{ID: 1, Status: tt.status}, nil
			}
			svc := NewConnectionService(repo, noopUserRepo())

			_, err := svc.SendRequest(context.Background(), 1, 2)
			assertConflictError(t, err)
		})
	}
}

func TestConnectionService_SendRequestAfterRejection(t *testing.T) {
	repo := noopConnRepo()
	repo.getBetweenUsersFn = func(_ context.Context, _, _ uint) (*models.Connection, error) {
		return &models.Connection{ID: 9, Status: models.ConnectionStatusRejected}, nil
	}
	deletedID := uint(0)
	repo.deleteFn = func(_ context.Context, id uint) error {
		deletedID = id
		return nil
	}
	var created *models.Connection
	repo.createFn = func(_ context.Context, c *models.Connection) error {
		c.ID = 10
		created = c
		return nil
	}
	svc := NewConnectionService(repo, noopUserRepo())

	_, err := svc.SendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(9), deletedID, "old rejected row should be replaced")
	require.NotNil(t, created)
	assert.Equal(t, models.ConnectionStatusPending, created.Status)
	assert.Equal(t, uint(1), created.RequesterID)
	assert.Equal(t, uint(2), created.ReceiverID)
}

func TestConnectionService_RespondPermissions(t *testing.T) {
	repo := noopConnRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Connection, error) {
		return &models.Connection{ID: id, RequesterID: 1, ReceiverID: 2, Status: models.ConnectionStatusPending}, nil
	}
	svc := NewConnectionService(repo, noopUserRepo())
	ctx := context.Background()

	// The requester cannot answer their own request.
	_, err := svc.Respond(ctx, 5, 1, true)
	assertForbiddenError(t, err)

	// A third party cannot answer either.
	_, err = svc.Respond(ctx, 5, 3, true)
	assertForbiddenError(t, err)

	var updatedStatus models.ConnectionStatus
	repo.updateStatusFn = func(_ context.Context, _ uint, status models.ConnectionStatus) error {
		updatedStatus = status
		return nil
	}
	_, err = svc.Respond(ctx, 5, 2, false)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusRejected, updatedStatus)
}

func TestConnectionService_RespondAlreadyAnswered(t *testing.T) {
	repo := noopConnRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Connection, error) {
		return &models.Connection{ID: id, RequesterID: 1, ReceiverID: 2, Status: models.ConnectionStatusAccepted}, nil
	}
	svc := NewConnectionService(repo, noopUserRepo())

	_, err := svc.Respond(context.Background(), 5, 2, true)
	assertConflictError(t, err)
}

func TestConnectionService_RemoveMembersOnly(t *testing.T) {
	repo := noopConnRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Connection, error) {
		return &models.Connection{ID: id, RequesterID: 1, ReceiverID: 2, Status: models.ConnectionStatusAccepted}, nil
	}
	svc := NewConnectionService(repo, noopUserRepo())
	ctx := context.Background()

	_, err := svc.Remove(ctx, 5, 3)
	assertForbiddenError(t, err)

	conn, err := svc.Remove(ctx, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(5), conn.ID)
}

func TestConnectionService_ListsResolveIsRequester(t *testing.T) {
	repo := noopConnRepo()
	repo.getAcceptedFn = func(_ context.Context, _ uint) ([]models.Connection, error) {
		return []models.Connection{
			{ID: 1, RequesterID: 7, ReceiverID: 8},
			{ID: 2, RequesterID: 9, ReceiverID: 7},
		}, nil
	}
	svc := NewConnectionService(repo, noopUserRepo())

	conns, err := svc.ListConnections(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.True(t, conns[0].IsRequester)
	assert.False(t, conns[1].IsRequester)
}

func TestConnectionService_Status(t *testing.T) {
	repo := noopConnRepo()
	svc := NewConnectionService(repo, noopUserRepo())
	ctx := context.Background()

	// No connection at all.
	conn, err := svc.Status(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, conn)

	repo.getBetweenUsersFn = func(_ context.Context, _, _ uint) (*models.Connection, error) {
		return &models.Connection{ID: 3, RequesterID: 2, ReceiverID: 1, Status: models.ConnectionStatusPending}, nil
	}
	conn, err = svc.Status(ctx, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.False(t, conn.IsRequester)
}
