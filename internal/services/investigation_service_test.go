package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

func newInvestigationFixture(t *testing.T) (*InvestigationService, *InspectionService) {
	t.Helper()

	db := newTestDB(t)
	activities, err := NewActivityService(db)
	require.NoError(t, err)
	investigations, err := NewInvestigationService(db, activities)
	require.NoError(t, err)
	inspections, err := NewInspectionService(db, activities)
	require.NoError(t, err)
	return investigations, inspections
}

func TestInvestigationOpenedFromInspectionCarriesBreaches(t *testing.T) {
	investigations, inspections := newInvestigationFixture(t)
	ctx := context.Background()

	rectified := true
	inspection, err := inspections.Create(ctx, CreateInspectionInput{
		Reference: "INS-77", SiteName: "Dockside Works",
		Summary: "Multiple safety failures observed",
		Breaches: []BreachInput{
			{Code: "OHS-12", Description: "Blocked fire exit"},
			{Code: "OHS-31", Description: "Missing guard rail"},
		},
	})
	require.NoError(t, err)

	_, err = inspections.UpdateBreach(ctx, inspection.Breaches[1].ID, "actor", UpdateBreachInput{Rectified: &rectified})
	require.NoError(t, err)

	investigation, err := investigations.Create(ctx, CreateInvestigationInput{
		Reference: "INV-2026-01", Title: "Dockside enquiry",
		InspectionID: inspection.ID,
	})
	require.NoError(t, err)
	require.Equal(t, models.InvestigationStatusOpen, investigation.Status)
	require.Equal(t, "Multiple safety failures observed", investigation.Summary)

	loaded, err := investigations.Get(ctx, investigation.ID)
	require.NoError(t, err)
	// Only the unrectified breach becomes a draft offence.
	require.Len(t, loaded.Offences, 1)
	require.Equal(t, "OHS-12", loaded.Offences[0].Provision)
}

func TestOffenceBurdenEvidenceFlow(t *testing.T) {
	investigations, _ := newInvestigationFixture(t)
	ctx := context.Background()

	investigation, err := investigations.Create(ctx, CreateInvestigationInput{
		Reference: "INV-10", Title: "Standalone enquiry",
	})
	require.NoError(t, err)

	offence, err := investigations.AddOffence(ctx, investigation.ID, "actor", OffenceInput{
		Provision: "s 32(1)", Description: "Failure to ensure safety",
	})
	require.NoError(t, err)

	burden, err := investigations.AddBurden(ctx, offence.ID, "actor", BurdenInput{
		Element: "Duty holder identified",
	})
	require.NoError(t, err)
	require.Equal(t, models.ProofStandardCriminal, burden.Standard)
	require.False(t, burden.Satisfied)

	_, err = investigations.AddBurden(ctx, offence.ID, "actor", BurdenInput{
		Element: "x", Standard: "gut_feeling",
	})
	require.Error(t, err)

	evidence, err := investigations.AddEvidence(ctx, investigation.ID, "actor", EvidenceInput{
		Kind: "Photograph", Title: "Fire exit obstruction",
	})
	require.NoError(t, err)
	require.Equal(t, "photograph", evidence.Kind)
	require.Equal(t, "actor", evidence.CollectedBy)

	satisfied, err := investigations.SatisfyBurden(ctx, burden.ID, "actor", evidence.ID)
	require.NoError(t, err)
	require.True(t, satisfied.Satisfied)
	require.NotNil(t, satisfied.EvidenceID)
	require.Equal(t, evidence.ID, *satisfied.EvidenceID)

	_, err = investigations.SatisfyBurden(ctx, burden.ID, "actor", "missing-evidence")
	require.Error(t, err)

	loaded, err := investigations.Get(ctx, investigation.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Offences, 1)
	require.Len(t, loaded.Offences[0].Burdens, 2)
	require.Len(t, loaded.Evidence, 1)
}

func TestInvestigationStatusAndListFilters(t *testing.T) {
	investigations, _ := newInvestigationFixture(t)
	ctx := context.Background()

	first, err := investigations.Create(ctx, CreateInvestigationInput{Reference: "INV-A", Title: "A"})
	require.NoError(t, err)
	_, err = investigations.Create(ctx, CreateInvestigationInput{Reference: "INV-B", Title: "B"})
	require.NoError(t, err)

	_, err = investigations.Create(ctx, CreateInvestigationInput{Reference: "INV-A", Title: "dup"})
	require.True(t, errors.Is(err, apperrors.ErrConflict))

	closed := models.InvestigationStatusClosed
	_, err = investigations.Update(ctx, first.ID, "actor", UpdateInvestigationInput{Status: &closed})
	require.NoError(t, err)

	open, err := investigations.List(ctx, models.InvestigationStatusOpen, 0, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "INV-B", open[0].Reference)
}
