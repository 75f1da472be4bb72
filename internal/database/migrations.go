package database

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fieldsight/fieldsight/internal/models"
)

// Identifiers for the seeded demo officer and team. Authentication is not
// enforced in this deployment; every request runs as the demo officer.
const (
	DemoOfficerID = "11111111-1111-4111-8111-111111111111"
	DemoTeamID    = "22222222-2222-4222-8222-222222222222"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Inspection{},
		&models.Breach{},
		&models.Investigation{},
		&models.Offence{},
		&models.ProofBurden{},
		&models.Evidence{},
		&models.Brief{},
		&models.TeamSchedule{},
		&models.ScheduleAssignment{},
		&models.Notification{},
		&models.Activity{},
	)
}

// SeedData inserts the demo officer account and a default field team.
func SeedData(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("fieldsight-demo"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	officer := models.User{
		BaseModel:   models.BaseModel{ID: DemoOfficerID},
		Username:    "demo.officer",
		Email:       "demo.officer@fieldsight.local",
		DisplayName: "Demo Officer",
		Password:    string(hash),
		IsActive:    true,
	}
	if err := db.Where(models.User{Username: officer.Username}).Attrs(officer).FirstOrCreate(&models.User{}).Error; err != nil {
		return err
	}

	team := models.Team{
		BaseModel:   models.BaseModel{ID: DemoTeamID},
		Name:        "Metro Compliance",
		Region:      "metro",
		Description: "Default inspection team",
	}
	if err := db.Where(models.Team{Name: team.Name}).Attrs(team).FirstOrCreate(&models.Team{}).Error; err != nil {
		return err
	}

	member := models.TeamMember{TeamID: DemoTeamID, UserID: DemoOfficerID, Role: "lead"}
	if err := db.Where(models.TeamMember{TeamID: member.TeamID, UserID: member.UserID}).
		Attrs(member).FirstOrCreate(&models.TeamMember{}).Error; err != nil {
		return err
	}

	return nil
}
