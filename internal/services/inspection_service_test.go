package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

func newInspectionFixture(t *testing.T) *InspectionService {
	t.Helper()

	db := newTestDB(t)
	activities, err := NewActivityService(db)
	require.NoError(t, err)
	svc, err := NewInspectionService(db, activities)
	require.NoError(t, err)
	return svc
}

func TestInspectionLifecycle(t *testing.T) {
	svc := newInspectionFixture(t)
	ctx := context.Background()

	inspection, err := svc.Create(ctx, CreateInspectionInput{
		Reference: "INS-2026-001",
		SiteName:  "Riverside Depot",
		Findings:  map[string]any{"ventilation": "inadequate"},
		Breaches: []BreachInput{
			{Code: "OHS-12", Description: "Blocked fire exit", Severity: "major"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.InspectionStatusDraft, inspection.Status)
	require.Len(t, inspection.Breaches, 1)

	_, err = svc.Create(ctx, CreateInspectionInput{Reference: "INS-2026-001", SiteName: "Duplicate"})
	require.True(t, errors.Is(err, apperrors.ErrConflict))

	submitted := models.InspectionStatusSubmitted
	summary := "Two breaches documented"
	updated, err := svc.Update(ctx, inspection.ID, "actor", UpdateInspectionInput{
		Status:  &submitted,
		Summary: &summary,
	})
	require.NoError(t, err)
	require.Equal(t, models.InspectionStatusSubmitted, updated.Status)
	require.Equal(t, summary, updated.Summary)

	breach, err := svc.AddBreach(ctx, inspection.ID, "actor", BreachInput{Code: "OHS-31"})
	require.NoError(t, err)
	require.Equal(t, "minor", breach.Severity)

	rectified := true
	fixedBreach, err := svc.UpdateBreach(ctx, breach.ID, "actor", UpdateBreachInput{Rectified: &rectified})
	require.NoError(t, err)
	require.True(t, fixedBreach.Rectified)

	loaded, err := svc.Get(ctx, inspection.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Breaches, 2)

	require.NoError(t, svc.Delete(ctx, inspection.ID, "actor"))
	_, err = svc.Get(ctx, inspection.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestInspectionListFilters(t *testing.T) {
	svc := newInspectionFixture(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInspectionInput{
		Reference: "INS-A", SiteName: "Site A", OfficerID: "officer-1",
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInspectionInput{
		Reference: "INS-B", SiteName: "Site B", OfficerID: "officer-2",
	})
	require.NoError(t, err)

	closed := models.InspectionStatusClosed
	_, err = svc.Update(ctx, first.ID, "actor", UpdateInspectionInput{Status: &closed})
	require.NoError(t, err)

	byStatus, err := svc.List(ctx, ListInspectionsInput{Status: models.InspectionStatusClosed})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	require.Equal(t, "INS-A", byStatus[0].Reference)

	byOfficer, err := svc.List(ctx, ListInspectionsInput{OfficerID: "officer-2"})
	require.NoError(t, err)
	require.Len(t, byOfficer, 1)
	require.Equal(t, "INS-B", byOfficer[0].Reference)
}

func TestInspectionValidation(t *testing.T) {
	svc := newInspectionFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInspectionInput{SiteName: "No reference"})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateInspectionInput{Reference: "INS-X"})
	require.Error(t, err)

	_, err = svc.AddBreach(ctx, "missing", "actor", BreachInput{Code: "OHS-1"})
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = svc.UpdateBreach(ctx, "missing", "actor", UpdateBreachInput{})
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}
