package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldsight/fieldsight/internal/models"
)

func TestResolveTransitionRecipients(t *testing.T) {
	assignees := []string{"a", "b"}
	team := []string{"a", "b", "c"}

	cases := []struct {
		name           string
		previous, next string
		assignees      []string
		wantOK         bool
		wantType       string
		wantPriority   string
		wantRecipients []string
	}{
		{
			name: "pending to active with assignees", previous: "pending", next: "active",
			assignees: assignees, wantOK: true,
			wantType: models.NotificationJobDispatched, wantPriority: models.PriorityHigh,
			wantRecipients: assignees,
		},
		{
			name: "pending to active without assignees", previous: "pending", next: "active",
			wantOK:   true,
			wantType: models.NotificationJobDispatched, wantPriority: models.PriorityHigh,
			wantRecipients: team,
		},
		{
			name: "any to completed", previous: "active", next: "completed",
			assignees: assignees, wantOK: true,
			wantType: models.NotificationJobCompleted, wantPriority: models.PriorityMedium,
			wantRecipients: team,
		},
		{
			name: "any to cancelled", previous: "pending", next: "cancelled",
			wantOK:   true,
			wantType: models.NotificationJobCancelled, wantPriority: models.PriorityMedium,
			wantRecipients: team,
		},
		{name: "same status", previous: "active", next: "active"},
		{name: "unknown transition", previous: "active", next: "archived"},
		{name: "active from non-pending", previous: "scheduled", next: "active"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, ok := ResolveTransitionRecipients(tc.previous, tc.next, tc.assignees, team)
			require.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			require.Equal(t, tc.wantType, plan.Type)
			require.Equal(t, tc.wantPriority, plan.Priority)
			require.Equal(t, tc.wantRecipients, plan.Recipients)
		})
	}
}

func TestResolveTransitionRecipientsNormalisesCase(t *testing.T) {
	plan, ok := ResolveTransitionRecipients("Pending", " ACTIVE ", []string{"a"}, []string{"a", "b"})
	require.True(t, ok)
	require.Equal(t, models.NotificationJobDispatched, plan.Type)
}
