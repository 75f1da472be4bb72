package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
	"github.com/fieldsight/fieldsight/pkg/logger"
)

// defaultNotifyTimeout bounds each per-recipient notification write so a
// stalled database cannot hang the whole fan-out loop.
const defaultNotifyTimeout = 5 * time.Second

// Notifier is the subset of NotificationService the dispatch fan-out
// depends on. Tests substitute a failing implementation to exercise the
// partial-failure path.
type Notifier interface {
	Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error)
}

// CreateScheduleInput describes a new dispatch job for a team.
type CreateScheduleInput struct {
	TeamID          string
	Title           string
	Details         string
	Location        string
	Priority        string
	ScheduledFor    *time.Time
	AssignedMembers []string
	ActorID         string
}

// UpdateScheduleInput carries a partial schedule update. Nil fields are
// left untouched.
type UpdateScheduleInput struct {
	Title        *string
	Details      *string
	Location     *string
	Priority     *string
	Status       *string
	ScheduledFor *time.Time
	ActorID      string
}

// DispatchService owns the team-schedule lifecycle and the notification
// fan-out it drives. Notification delivery is best-effort per recipient;
// the schedule write itself never depends on it.
type DispatchService struct {
	db            *gorm.DB
	notifier      Notifier
	activities    *ActivityService
	log           *zap.Logger
	notifyTimeout time.Duration
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(db *gorm.DB, notifier Notifier, activities *ActivityService) (*DispatchService, error) {
	if db == nil {
		return nil, errors.New("dispatch service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("dispatch service: notifier is required")
	}
	if activities == nil {
		return nil, errors.New("dispatch service: activity service is required")
	}
	return &DispatchService{
		db:            db,
		notifier:      notifier,
		activities:    activities,
		log:           logger.WithModule("dispatch"),
		notifyTimeout: defaultNotifyTimeout,
	}, nil
}

// CreateSchedule persists a schedule with its assignments and notifies
// the team: assigned members get a job_assignment at the caller's
// priority, the remaining members a team_job.
func (s *DispatchService) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*models.TeamSchedule, error) {
	ctx = ensureContext(ctx)

	teamID := strings.TrimSpace(input.TeamID)
	if teamID == "" {
		return nil, apperrors.NewBadRequest("team id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}

	var team models.Team
	err := s.db.WithContext(ctx).First(&team, "id = ?", teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch service: load team: %w", err)
	}

	members, err := teamMemberIDs(ctx, s.db, teamID)
	if err != nil {
		return nil, fmt.Errorf("dispatch service: %w", err)
	}

	assignees := normaliseIDs(input.AssignedMembers)
	for _, userID := range assignees {
		if !containsString(members, userID) {
			return nil, apperrors.NewBadRequest(fmt.Sprintf("user %s is not a member of the team", userID))
		}
	}

	schedule := models.TeamSchedule{
		TeamID:       teamID,
		Title:        title,
		Details:      strings.TrimSpace(input.Details),
		Location:     strings.TrimSpace(input.Location),
		Status:       models.ScheduleStatusPending,
		Priority:     defaultIfEmpty(strings.TrimSpace(input.Priority), models.PriorityMedium),
		ScheduledFor: input.ScheduledFor,
		CreatedBy:    strings.TrimSpace(input.ActorID),
	}
	for _, userID := range assignees {
		schedule.Assignments = append(schedule.Assignments, models.ScheduleAssignment{
			UserID:           userID,
			AssignmentStatus: models.AssignmentPending,
		})
	}

	if err := s.db.WithContext(ctx).Create(&schedule).Error; err != nil {
		return nil, fmt.Errorf("dispatch service: create schedule: %w", err)
	}

	s.recordActivity(ctx, input.ActorID, "schedule.created", schedule.ID, map[string]any{
		"team_id":  teamID,
		"title":    title,
		"priority": schedule.Priority,
	})

	s.fanOut(ctx, &schedule, fanoutPlan{
		Type:       models.NotificationJobAssignment,
		Priority:   schedule.Priority,
		Recipients: assignees,
	})

	teamJobPriority := models.PriorityMedium
	if schedule.Priority == models.PriorityHigh || schedule.Priority == models.PriorityUrgent {
		teamJobPriority = models.PriorityHigh
	}
	var remaining []string
	for _, userID := range members {
		if !containsString(assignees, userID) {
			remaining = append(remaining, userID)
		}
	}
	s.fanOut(ctx, &schedule, fanoutPlan{
		Type:       models.NotificationTeamJob,
		Priority:   teamJobPriority,
		Recipients: remaining,
	})

	return &schedule, nil
}

// UpdateSchedule applies a partial update. Status strings are not
// validated; side effects fire only when the stored status actually
// changes and the transition matches a fan-out rule. Everything else is
// a plain field update.
func (s *DispatchService) UpdateSchedule(ctx context.Context, scheduleID string, input UpdateScheduleInput) (*models.TeamSchedule, error) {
	ctx = ensureContext(ctx)

	schedule, err := s.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	previousStatus := schedule.Status
	updates := map[string]any{}

	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Details != nil {
		updates["details"] = strings.TrimSpace(*input.Details)
	}
	if input.Location != nil {
		updates["location"] = strings.TrimSpace(*input.Location)
	}
	if input.Priority != nil {
		updates["priority"] = defaultIfEmpty(strings.TrimSpace(*input.Priority), models.PriorityMedium)
	}
	if input.ScheduledFor != nil {
		updates["scheduled_for"] = *input.ScheduledFor
	}
	if input.Status != nil {
		updates["status"] = strings.TrimSpace(strings.ToLower(*input.Status))
	}

	if len(updates) == 0 {
		return schedule, nil
	}

	if err := s.db.WithContext(ctx).Model(schedule).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("dispatch service: update schedule: %w", err)
	}

	if schedule, err = s.GetSchedule(ctx, scheduleID); err != nil {
		return nil, err
	}

	if schedule.Status != previousStatus {
		s.recordActivity(ctx, input.ActorID, "schedule.status_changed", schedule.ID, map[string]any{
			"from": previousStatus,
			"to":   schedule.Status,
		})
		s.dispatchTransition(ctx, schedule, previousStatus)
	} else {
		s.recordActivity(ctx, input.ActorID, "schedule.updated", schedule.ID, map[string]any{
			"fields": updateKeys(updates),
		})
	}

	return schedule, nil
}

// GetSchedule loads a schedule with its assignments.
func (s *DispatchService) GetSchedule(ctx context.Context, scheduleID string) (*models.TeamSchedule, error) {
	ctx = ensureContext(ctx)

	scheduleID = strings.TrimSpace(scheduleID)
	if scheduleID == "" {
		return nil, apperrors.NewBadRequest("schedule id is required")
	}

	var schedule models.TeamSchedule
	err := s.db.WithContext(ctx).
		Preload("Assignments").
		First(&schedule, "id = ?", scheduleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch service: load schedule: %w", err)
	}
	return &schedule, nil
}

// ListForTeam returns a team's schedules newest first.
func (s *DispatchService) ListForTeam(ctx context.Context, teamID string) ([]models.TeamSchedule, error) {
	ctx = ensureContext(ctx)

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, apperrors.NewBadRequest("team id is required")
	}

	var schedules []models.TeamSchedule
	if err := s.db.WithContext(ctx).
		Preload("Assignments").
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("dispatch service: list schedules: %w", err)
	}
	return schedules, nil
}

// RespondToAssignment records an officer accepting or declining their
// assignment.
func (s *DispatchService) RespondToAssignment(ctx context.Context, scheduleID, userID, response string) (*models.ScheduleAssignment, error) {
	ctx = ensureContext(ctx)

	response = strings.TrimSpace(strings.ToLower(response))
	if response != models.AssignmentAccepted && response != models.AssignmentDeclined {
		return nil, apperrors.NewBadRequest("response must be accepted or declined")
	}

	var assignment models.ScheduleAssignment
	err := s.db.WithContext(ctx).
		Where("schedule_id = ? AND user_id = ?", strings.TrimSpace(scheduleID), strings.TrimSpace(userID)).
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dispatch service: load assignment: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&assignment).
		Update("assignment_status", response).Error; err != nil {
		return nil, fmt.Errorf("dispatch service: update assignment: %w", err)
	}
	assignment.AssignmentStatus = response

	s.recordActivity(ctx, userID, "schedule.assignment_"+response, assignment.ScheduleID, map[string]any{
		"user_id": userID,
	})
	return &assignment, nil
}

// dispatchTransition resolves and delivers the notification batch for a
// stored-status change.
func (s *DispatchService) dispatchTransition(ctx context.Context, schedule *models.TeamSchedule, previousStatus string) {
	members, err := teamMemberIDs(ctx, s.db, schedule.TeamID)
	if err != nil {
		s.log.Error("transition fan-out aborted: member lookup failed",
			zap.String("schedule_id", schedule.ID), zap.Error(err))
		return
	}

	assignees := make([]string, 0, len(schedule.Assignments))
	for _, assignment := range schedule.Assignments {
		assignees = append(assignees, assignment.UserID)
	}

	plan, ok := ResolveTransitionRecipients(previousStatus, schedule.Status, assignees, members)
	if !ok {
		return
	}
	s.fanOut(ctx, schedule, plan)
}

// fanOut delivers one notification per recipient. Each write gets its
// own bounded context; a failure is logged and the loop continues, so a
// single bad recipient never starves the rest.
func (s *DispatchService) fanOut(ctx context.Context, schedule *models.TeamSchedule, plan fanoutPlan) {
	if len(plan.Recipients) == 0 {
		return
	}

	title, message := notificationCopy(plan.Type, schedule)
	for _, userID := range plan.Recipients {
		opCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		_, err := s.notifier.Create(opCtx, CreateNotificationInput{
			UserID:     userID,
			Type:       plan.Type,
			Title:      title,
			Message:    message,
			Priority:   plan.Priority,
			EntityType: "schedule",
			EntityID:   schedule.ID,
			Metadata: map[string]any{
				"team_id": schedule.TeamID,
				"status":  schedule.Status,
			},
		})
		cancel()
		if err != nil {
			s.log.Warn("notification delivery failed",
				zap.String("schedule_id", schedule.ID),
				zap.String("user_id", userID),
				zap.String("type", plan.Type),
				zap.Error(err))
		}
	}
}

func (s *DispatchService) recordActivity(ctx context.Context, actorID, action, scheduleID string, details map[string]any) {
	err := s.activities.Record(ctx, RecordActivityInput{
		ActorID:    actorID,
		Action:     action,
		EntityType: "schedule",
		EntityID:   scheduleID,
		Details:    details,
	})
	if err != nil {
		s.log.Warn("activity record failed",
			zap.String("schedule_id", scheduleID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func notificationCopy(notificationType string, schedule *models.TeamSchedule) (string, string) {
	switch notificationType {
	case models.NotificationJobAssignment:
		return "New job assignment", fmt.Sprintf("You have been assigned to %q.", schedule.Title)
	case models.NotificationTeamJob:
		return "New team job", fmt.Sprintf("%q has been scheduled for your team.", schedule.Title)
	case models.NotificationJobDispatched:
		return "Job dispatched", fmt.Sprintf("%q is now active.", schedule.Title)
	case models.NotificationJobCompleted:
		return "Job completed", fmt.Sprintf("%q has been completed.", schedule.Title)
	case models.NotificationJobCancelled:
		return "Job cancelled", fmt.Sprintf("%q has been cancelled.", schedule.Title)
	default:
		return "Schedule update", fmt.Sprintf("%q was updated.", schedule.Title)
	}
}

func updateKeys(updates map[string]any) []string {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	return keys
}
