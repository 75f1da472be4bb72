package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

func TestTeamLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewTeamService(db)
	require.NoError(t, err)

	team, err := svc.Create(context.Background(), CreateTeamInput{
		Name: "Harbour District", Region: "East",
	})
	require.NoError(t, err)
	require.NotEmpty(t, team.ID)

	_, err = svc.Create(context.Background(), CreateTeamInput{Name: "Harbour District"})
	require.True(t, errors.Is(err, apperrors.ErrConflict))

	user := models.User{Username: "o1", Email: "o1@example.test", Password: "hash"}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, svc.AddMember(context.Background(), team.ID, user.ID, ""))
	// Re-adding the same member is a no-op.
	require.NoError(t, svc.AddMember(context.Background(), team.ID, user.ID, "lead"))

	members, err := svc.Members(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, user.ID, members[0].ID)

	loaded, err := svc.Get(context.Background(), team.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)

	require.NoError(t, svc.RemoveMember(context.Background(), team.ID, user.ID))
	err = svc.RemoveMember(context.Background(), team.ID, user.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestTeamMembershipValidation(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewTeamService(db)
	require.NoError(t, err)

	err = svc.AddMember(context.Background(), "missing-team", "missing-user", "")
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Members(context.Background(), "missing-team")
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Get(context.Background(), "missing-team")
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestTeamListOrdersByName(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewTeamService(db)
	require.NoError(t, err)

	for _, name := range []string{"Zeta", "Alpha"} {
		_, err := svc.Create(context.Background(), CreateTeamInput{Name: name})
		require.NoError(t, err)
	}

	teams, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	require.Equal(t, "Alpha", teams[0].Name)
}
