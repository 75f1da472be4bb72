package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/models"
)

func TestActivityRecordAndList(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewActivityService(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, RecordActivityInput{
		ActorID: "actor-1", Action: "schedule.created",
		EntityType: "schedule", EntityID: "s-1",
		Details: map[string]any{"title": "Night run"},
	}))
	require.NoError(t, svc.Record(ctx, RecordActivityInput{
		ActorID: "actor-2", Action: "schedule.status_changed",
		EntityType: "schedule", EntityID: "s-1",
	}))
	require.NoError(t, svc.Record(ctx, RecordActivityInput{
		ActorID: "actor-1", Action: "inspection.created",
		EntityType: "inspection", EntityID: "i-1",
	}))

	err = svc.Record(ctx, RecordActivityInput{ActorID: "actor-1"})
	require.Error(t, err)

	byEntity, err := svc.List(ctx, ListActivitiesInput{EntityType: "schedule", EntityID: "s-1"})
	require.NoError(t, err)
	require.Len(t, byEntity, 2)

	byActor, err := svc.List(ctx, ListActivitiesInput{ActorID: "actor-1"})
	require.NoError(t, err)
	require.Len(t, byActor, 2)
}

func TestActivityPurgeOlderThan(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewActivityService(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, RecordActivityInput{Action: "old.event"}))
	require.NoError(t, svc.Record(ctx, RecordActivityInput{Action: "new.event"}))

	stale := time.Now().Add(-365 * 24 * time.Hour)
	require.NoError(t, db.Model(&models.Activity{}).
		Where("action = ?", "old.event").
		Update("created_at", stale).Error)

	purged, err := svc.PurgeOlderThan(ctx, 180*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	remaining, err := svc.List(ctx, ListActivitiesInput{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "new.event", remaining[0].Action)
}
