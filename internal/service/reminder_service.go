package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/notify"
	"github.com/mayor-schedule-api/internal/repository"
)

const dateLayout = "2006-01-02"

// reminderService sweeps same-day appointments on a fixed cadence and fires
// at most one reminder per appointment. The reminder_sent flag in the store
// is the durable record of "already notified"; a crash between send and
// flag-write can produce one duplicate, which is the accepted at-least-once
// semantic.
type reminderService struct {
	apptRepo  repository.AppointmentRepository
	userRepo  repository.UserRepository
	sender    notify.Sender
	collector *metrics.Collector
	log       zerolog.Logger

	interval  time.Duration
	lookahead time.Duration
	now       func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// newReminderService creates a new ReminderService
func newReminderService(repos *repository.Repositories, sender notify.Sender, collector *metrics.Collector, cfg config.ReminderConfig, log zerolog.Logger) *reminderService {
	return &reminderService{
		apptRepo:  repos.Appointment,
		userRepo:  repos.User,
		sender:    sender,
		collector: collector,
		log:       log.With().Str("service", "reminder").Logger(),
		interval:  cfg.Interval,
		lookahead: cfg.Lookahead,
		now:       time.Now,
	}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called. Cycles run sequentially on the ticker, so they never overlap.
func (s *reminderService) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Info().
		Dur("interval", s.interval).
		Dur("lookahead", s.lookahead).
		Msg("Reminder sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Reminder sweeper stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("Reminder sweep failed")
			}
		}
	}
}

// Stop cancels the sweep loop.
func (s *reminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.running = false
}

// RunOnce executes a single sweep cycle: every same-day appointment whose
// due instant is within (0, lookahead] and whose reminder flag is unset gets
// one reminder. Appointments are processed independently; one failed send
// never blocks the rest of the cycle.
func (s *reminderService) RunOnce(ctx context.Context) error {
	start := s.now()
	today := start.Format(dateLayout)

	appointments, err := s.apptRepo.PendingReminders(ctx, today)
	if err != nil {
		return err
	}

	for _, appointment := range appointments {
		s.processAppointment(ctx, appointment, start)
	}

	s.collector.RecordSweep(time.Since(start))
	if len(appointments) > 0 {
		s.log.Debug().
			Int("candidates", len(appointments)).
			Msg("Reminder sweep completed")
	}
	return nil
}

// processAppointment applies the window policy and, when it matches, runs
// the per-appointment sequence: resolve recipients, send, set flag. That
// order must not change; the flag is only written after a send attempt
// against a non-empty recipient set.
func (s *reminderService) processAppointment(ctx context.Context, appointment *models.Appointment, now time.Time) {
	due, err := appointment.DueAt(now.Location())
	if err != nil {
		s.collector.RecordReminderSkipped("bad_datetime")
		s.log.Warn().
			Str("appointment_id", appointment.ID).
			Str("date", appointment.Date).
			Str("time", appointment.Time).
			Msg("Appointment has unparseable date/time, skipping")
		return
	}

	until := due.Sub(now)
	if until <= 0 {
		// Already past due. The reminder window has closed for good.
		s.collector.RecordReminderSkipped("past_due")
		return
	}
	if until > s.lookahead {
		// Not yet in the window; the next cycles will pick it up.
		s.collector.RecordReminderSkipped("outside_window")
		return
	}

	tokens, err := s.userRepo.ListTokensForRole(ctx, models.RoleMayor)
	if err != nil {
		s.collector.RecordReminderSkipped("directory_error")
		s.log.Error().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("Failed to resolve mayor endpoints")
		return
	}
	if len(tokens) == 0 {
		// Leave the flag unset: the appointment is retried every cycle
		// until at least one mayor endpoint exists.
		s.collector.RecordReminderSkipped("no_recipients")
		return
	}

	title, body := models.NotificationMessage(models.NotificationReminder, appointment)

	report, err := s.sender.Send(ctx, title, body, tokens)
	if err != nil {
		s.collector.RecordReminderSkipped("delivery_error")
		s.log.Error().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("Reminder delivery failed, will retry next cycle")
		return
	}

	s.collector.RecordPushResults(report.Success, report.Failure)
	pruneFailedTokens(ctx, s.userRepo, s.collector, s.log, report.Results)

	if report.Success == 0 {
		// Every endpoint rejected the message: treat as a delivery failure
		// and leave the flag unset for the next cycle.
		s.collector.RecordReminderSkipped("delivery_error")
		s.log.Error().
			Str("appointment_id", appointment.ID).
			Int("failure", report.Failure).
			Msg("Reminder rejected by all endpoints, will retry next cycle")
		return
	}

	marked, err := s.apptRepo.MarkReminderSent(ctx, appointment.ID)
	if err != nil {
		// The send went out but the flag write failed; the next cycle may
		// resend. Accepted at-least-once window.
		s.log.Error().Err(err).
			Str("appointment_id", appointment.ID).
			Msg("Failed to mark reminder as sent")
		return
	}
	if !marked {
		// A concurrent cycle got there first.
		return
	}

	s.collector.RecordReminderSent()
	s.log.Info().
		Str("appointment_id", appointment.ID).
		Str("visitor", appointment.VisitorName).
		Dur("due_in", until).
		Int("endpoints", len(tokens)).
		Msg("Reminder sent")
}
