package repository

import (
	"context"

	"github.com/mayor-schedule-api/internal/database"
	"github.com/mayor-schedule-api/internal/models"
)

// AppointmentRepository defines the interface for appointment data operations
type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	Update(ctx context.Context, a *models.Appointment) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*models.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]*models.Appointment, error)
	ListFromDate(ctx context.Context, date string) ([]*models.Appointment, error)
	PendingReminders(ctx context.Context, date string) ([]*models.Appointment, error)
	MarkReminderSent(ctx context.Context, id string) (bool, error)
}

// UserRepository defines the interface for user and push-token operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateRoleStatus(ctx context.Context, id string, role models.Role, status models.Status) error
	PromoteFirstAdmin(ctx context.Context, id string) error
	AddPushToken(ctx context.Context, userID, token string) error
	DeletePushToken(ctx context.Context, token string) error
	ListTokensForRole(ctx context.Context, role models.Role) ([]string, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Appointment AppointmentRepository
	User        UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Appointment: NewAppointmentRepo(db),
		User:        NewUserRepo(db),
	}
}
