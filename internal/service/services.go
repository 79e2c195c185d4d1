package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/notify"
	"github.com/mayor-schedule-api/internal/repository"
)

// AppointmentService defines the interface for appointment operations
type AppointmentService interface {
	Create(ctx context.Context, actor *models.User, req *models.CreateAppointmentRequest) (*models.Appointment, *models.NotifyResult, error)
	Get(ctx context.Context, id string) (*models.Appointment, error)
	List(ctx context.Context, scope models.AppointmentScope) ([]*models.Appointment, error)
	Update(ctx context.Context, id string, req *models.UpdateAppointmentRequest) (*models.Appointment, error)
	Delete(ctx context.Context, id string) error
}

// NotifierService resolves recipients for an appointment notification and
// delivers it. Used synchronously on creation and by the explicit trigger.
type NotifierService interface {
	Notify(ctx context.Context, appointmentID string, kind models.NotificationKind) (*models.NotifyResult, error)
}

// DirectoryService defines the interface for user, role and push-endpoint
// operations.
type DirectoryService interface {
	Register(ctx context.Context, id string, req *models.RegisterRequest) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id string, req *models.UpdateUserRequest) error
	RegisterToken(ctx context.Context, userID, token string) error
	BootstrapAdmin(ctx context.Context, callerID string) error
}

// ReminderService runs the periodic reminder sweep.
type ReminderService interface {
	Start(ctx context.Context)
	Stop()
	RunOnce(ctx context.Context) error
}

// Services holds all service interfaces
type Services struct {
	Appointment AppointmentService
	Notifier    NotifierService
	Directory   DirectoryService
	Reminder    ReminderService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, sender notify.Sender, collector *metrics.Collector, cfg *config.Config, log zerolog.Logger) *Services {
	notifier := newNotifierService(repos, sender, collector, log)

	return &Services{
		Appointment: newAppointmentService(repos.Appointment, notifier, log),
		Notifier:    notifier,
		Directory:   newDirectoryService(repos.User, log),
		Reminder:    newReminderService(repos, sender, collector, cfg.Reminder, log),
	}
}
