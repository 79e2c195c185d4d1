package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/repository"
)

// appointmentService is the concrete implementation of AppointmentService
type appointmentService struct {
	repo     repository.AppointmentRepository
	notifier NotifierService
	log      zerolog.Logger
	now      func() time.Time
}

// newAppointmentService creates a new AppointmentService
func newAppointmentService(repo repository.AppointmentRepository, notifier NotifierService, log zerolog.Logger) *appointmentService {
	return &appointmentService{
		repo:     repo,
		notifier: notifier,
		log:      log.With().Str("service", "appointment").Logger(),
		now:      time.Now,
	}
}

// Create stores a new appointment and synchronously notifies the mayors.
// Notification failure is a soft warning: the appointment stays written and
// the caller gets a nil notify result instead of an error.
func (s *appointmentService) Create(ctx context.Context, actor *models.User, req *models.CreateAppointmentRequest) (*models.Appointment, *models.NotifyResult, error) {
	if err := validateDateTime(req.Date, req.Time); err != nil {
		return nil, nil, err
	}

	appointment := &models.Appointment{
		ID:          uuid.New().String(),
		VisitorName: req.VisitorName,
		Subject:     req.Subject,
		Date:        req.Date,
		Time:        req.Time,
		Notes:       req.Notes,
		CreatedBy:   actor.ID,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	result, err := s.notifier.Notify(ctx, appointment.ID, models.NotificationNew)
	if err != nil {
		s.log.Warn().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("Creation notification failed, appointment kept")
		result = nil
	}

	s.log.Info().
		Str("appointment_id", appointment.ID).
		Str("created_by", actor.ID).
		Str("date", appointment.Date).
		Str("time", appointment.Time).
		Msg("Appointment created")

	return appointment, result, nil
}

// Get retrieves one appointment.
func (s *appointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, models.ErrNotFound
	}
	return appointment, nil
}

// List retrieves appointments for a scope, sorted ascending by date+time.
func (s *appointmentService) List(ctx context.Context, scope models.AppointmentScope) ([]*models.Appointment, error) {
	today := s.now().Format(dateLayout)

	var (
		appointments []*models.Appointment
		err          error
	)
	switch scope {
	case models.ScopeToday:
		appointments, err = s.repo.ListByDate(ctx, today)
	case models.ScopeUpcoming:
		appointments, err = s.repo.ListFromDate(ctx, today)
	default:
		appointments, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return nil, err
	}

	SortByDueTime(appointments)
	return appointments, nil
}

// Update edits an appointment's fields, which restarts its reminder
// lifecycle.
func (s *appointmentService) Update(ctx context.Context, id string, req *models.UpdateAppointmentRequest) (*models.Appointment, error) {
	if err := validateDateTime(req.Date, req.Time); err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		ID:          id,
		VisitorName: req.VisitorName,
		Subject:     req.Subject,
		Date:        req.Date,
		Time:        req.Time,
		Notes:       req.Notes,
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.ErrNotFound
	}

	s.log.Info().Str("appointment_id", id).Msg("Appointment updated, reminder reset")
	return updated, nil
}

// Delete removes an appointment.
func (s *appointmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("appointment_id", id).Msg("Appointment deleted")
	return nil
}

// SortByDueTime orders appointments ascending by their date+time key.
func SortByDueTime(appointments []*models.Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		return appointments[i].SortKey() < appointments[j].SortKey()
	})
}

// validateDateTime checks the submitted calendar date and time-of-day.
func validateDateTime(date, timeOfDay string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", models.ErrInvalidInput)
	}
	if _, err := time.Parse("15:04", timeOfDay); err != nil {
		return fmt.Errorf("%w: time must be HH:mm", models.ErrInvalidInput)
	}
	return nil
}
