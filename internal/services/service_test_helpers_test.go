package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/collab"
	"github.com/fieldsight/fieldsight/internal/database/testutil"
	"github.com/fieldsight/fieldsight/internal/models"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedTeamWithMembers(t *testing.T, db *gorm.DB, memberCount int) (models.Team, []models.User) {
	t.Helper()

	team := models.Team{Name: "Metro Compliance " + t.Name()}
	require.NoError(t, db.Create(&team).Error)

	users := make([]models.User, 0, memberCount)
	for i := 0; i < memberCount; i++ {
		user := models.User{
			Username:    t.Name() + "-officer-" + string(rune('a'+i)),
			Email:       t.Name() + string(rune('a'+i)) + "@example.test",
			DisplayName: "Officer " + string(rune('A'+i)),
			Password:    "hash",
		}
		require.NoError(t, db.Create(&user).Error)
		require.NoError(t, db.Create(&models.TeamMember{TeamID: team.ID, UserID: user.ID}).Error)
		users = append(users, user)
	}
	return team, users
}

// recordingNotifier captures fan-out writes and can be told to fail for
// specific recipients.
type recordingNotifier struct {
	mu      sync.Mutex
	created []CreateNotificationInput
	failFor map[string]bool
}

func (n *recordingNotifier) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failFor[input.UserID] {
		return nil, apperrors.ErrInternalServer
	}
	n.created = append(n.created, input)
	return &NotificationDTO{UserID: input.UserID, Type: input.Type, Priority: input.Priority}, nil
}

func (n *recordingNotifier) byType(notificationType string) []CreateNotificationInput {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []CreateNotificationInput
	for _, input := range n.created {
		if input.Type == notificationType {
			out = append(out, input)
		}
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = nil
}

// recordingBroadcaster captures live pushes from the notification service.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []collab.Message
}

func (b *recordingBroadcaster) Broadcast(entity, entityID string, msg collab.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	msg.Entity = entity
	msg.EntityID = entityID
	b.events = append(b.events, msg)
}
