package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

// CreateTeamInput describes a new field team.
type CreateTeamInput struct {
	Name        string
	Region      string
	Description string
}

// TeamService manages teams and their membership rolls.
type TeamService struct {
	db *gorm.DB
}

// NewTeamService constructs a TeamService.
func NewTeamService(db *gorm.DB) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{db: db}, nil
}

// Create persists a team. Team names are unique.
func (s *TeamService) Create(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("team name is required")
	}

	team := models.Team{
		Name:        name,
		Region:      strings.TrimSpace(input.Region),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.db.WithContext(ctx).Create(&team).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrConflict
		}
		return nil, fmt.Errorf("team service: create team: %w", err)
	}
	return &team, nil
}

// List returns all teams ordered by name.
func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	var teams []models.Team
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// Get loads one team with its members.
func (s *TeamService) Get(ctx context.Context, teamID string) (*models.Team, error) {
	ctx = ensureContext(ctx)

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, apperrors.NewBadRequest("team id is required")
	}

	var team models.Team
	err := s.db.WithContext(ctx).Preload("Members").First(&team, "id = ?", teamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("team service: load team: %w", err)
	}
	return &team, nil
}

// AddMember enrols an officer in a team. Adding an existing member is a
// no-op.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID, role string) error {
	ctx = ensureContext(ctx)

	teamID = strings.TrimSpace(teamID)
	userID = strings.TrimSpace(userID)
	if teamID == "" || userID == "" {
		return apperrors.NewBadRequest("team id and user id are required")
	}

	if err := s.requireTeam(ctx, teamID); err != nil {
		return err
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("team service: load user: %w", err)
	}

	member := models.TeamMember{
		TeamID: teamID,
		UserID: userID,
		Role:   defaultIfEmpty(strings.TrimSpace(role), "officer"),
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil
		}
		return fmt.Errorf("team service: add member: %w", err)
	}
	return nil
}

// RemoveMember drops an officer from a team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", strings.TrimSpace(teamID), strings.TrimSpace(userID)).
		Delete(&models.TeamMember{})
	if result.Error != nil {
		return fmt.Errorf("team service: remove member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Members returns the officers enrolled in a team.
func (s *TeamService) Members(ctx context.Context, teamID string) ([]models.User, error) {
	ctx = ensureContext(ctx)

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, apperrors.NewBadRequest("team id is required")
	}
	if err := s.requireTeam(ctx, teamID); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.user_id = users.id").
		Where("team_members.team_id = ?", teamID).
		Order("users.display_name ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("team service: list members: %w", err)
	}
	return users, nil
}

func (s *TeamService) requireTeam(ctx context.Context, teamID string) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Team{}).
		Where("id = ?", teamID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("team service: check team: %w", err)
	}
	if count == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
