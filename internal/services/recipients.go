package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
)

// fanoutPlan describes one batch of notifications produced by a schedule
// lifecycle event: who gets notified, with what type and priority.
type fanoutPlan struct {
	Type       string
	Priority   string
	Recipients []string
}

// teamMemberIDs loads the user IDs of every member of a team.
func teamMemberIDs(ctx context.Context, db *gorm.DB, teamID string) ([]string, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, nil
	}

	var ids []string
	if err := db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("team_id = ?", teamID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("resolve team members: %w", err)
	}
	return normaliseIDs(ids), nil
}

// ResolveTransitionRecipients maps a stored-status change onto the
// notification batch it triggers. The same rules drive the persisted
// channel today and any future live-only consumers, so they live in one
// place. Returns false when the transition carries no side effects:
// unknown statuses and same-status writes are plain field updates.
func ResolveTransitionRecipients(previous, next string, assignees, teamMembers []string) (fanoutPlan, bool) {
	previous = strings.TrimSpace(strings.ToLower(previous))
	next = strings.TrimSpace(strings.ToLower(next))
	if previous == next {
		return fanoutPlan{}, false
	}

	switch {
	case previous == models.ScheduleStatusPending && next == models.ScheduleStatusActive:
		recipients := assignees
		if len(recipients) == 0 {
			recipients = teamMembers
		}
		return fanoutPlan{
			Type:       models.NotificationJobDispatched,
			Priority:   models.PriorityHigh,
			Recipients: recipients,
		}, len(recipients) > 0

	case next == models.ScheduleStatusCompleted:
		return fanoutPlan{
			Type:       models.NotificationJobCompleted,
			Priority:   models.PriorityMedium,
			Recipients: teamMembers,
		}, len(teamMembers) > 0

	case next == models.ScheduleStatusCancelled:
		return fanoutPlan{
			Type:       models.NotificationJobCancelled,
			Priority:   models.PriorityMedium,
			Recipients: teamMembers,
		}, len(teamMembers) > 0
	}

	return fanoutPlan{}, false
}
