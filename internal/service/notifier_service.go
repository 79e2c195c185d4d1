package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/notify"
	"github.com/mayor-schedule-api/internal/repository"
)

// notifierService is the concrete implementation of NotifierService
type notifierService struct {
	apptRepo  repository.AppointmentRepository
	userRepo  repository.UserRepository
	sender    notify.Sender
	collector *metrics.Collector
	log       zerolog.Logger
}

// newNotifierService creates a new NotifierService
func newNotifierService(repos *repository.Repositories, sender notify.Sender, collector *metrics.Collector, log zerolog.Logger) *notifierService {
	return &notifierService{
		apptRepo:  repos.Appointment,
		userRepo:  repos.User,
		sender:    sender,
		collector: collector,
		log:       log.With().Str("service", "notifier").Logger(),
	}
}

// Notify re-reads the appointment, resolves every push token registered for
// role mayor and delivers one multicast message. A missing appointment is
// ErrNotFound; an empty recipient set is success with the NoRecipients
// marker so callers can tell "sent" from "nothing to send".
func (s *notifierService) Notify(ctx context.Context, appointmentID string, kind models.NotificationKind) (*models.NotifyResult, error) {
	appointment, err := s.apptRepo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment: %w", err)
	}
	if appointment == nil {
		return nil, models.ErrNotFound
	}

	tokens, err := s.userRepo.ListTokensForRole(ctx, models.RoleMayor)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(tokens) == 0 {
		s.log.Info().
			Str("appointment_id", appointmentID).
			Str("kind", string(kind)).
			Msg("No mayor endpoints registered, nothing to send")
		return &models.NotifyResult{NoRecipients: true}, nil
	}

	title, body := models.NotificationMessage(kind, appointment)

	report, err := s.sender.Send(ctx, title, body, tokens)
	if err != nil {
		return nil, &models.DeliveryError{Attempted: len(tokens), Failed: len(tokens), Err: err}
	}

	s.collector.RecordPushResults(report.Success, report.Failure)
	pruneFailedTokens(ctx, s.userRepo, s.collector, s.log, report.Results)

	s.log.Info().
		Str("appointment_id", appointmentID).
		Str("kind", string(kind)).
		Int("success", report.Success).
		Int("failure", report.Failure).
		Msg("Notification delivered")

	return &models.NotifyResult{Sent: report.Success, Failed: report.Failure}, nil
}

// pruneFailedTokens removes tokens the provider reported as permanently
// undeliverable. Pruning is best-effort; a failed delete is logged and the
// token gets another chance next send.
func pruneFailedTokens(ctx context.Context, userRepo repository.UserRepository, collector *metrics.Collector, log zerolog.Logger, results []notify.TokenResult) {
	for _, r := range results {
		if !r.Permanent {
			continue
		}
		if err := userRepo.DeletePushToken(ctx, r.Token); err != nil {
			log.Warn().Err(err).Str("reason", r.Reason).Msg("Failed to prune stale push token")
			continue
		}
		collector.RecordTokenPruned()
		log.Info().Str("reason", r.Reason).Msg("Pruned stale push token")
	}
}
