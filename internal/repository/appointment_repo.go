package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mayor-schedule-api/internal/database"
	"github.com/mayor-schedule-api/internal/models"
)

// appointmentRepo is the concrete implementation of AppointmentRepository
type appointmentRepo struct {
	db *database.DB
}

// NewAppointmentRepo creates a new appointment repository
func NewAppointmentRepo(db *database.DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

const appointmentColumns = `id, visitor_name, subject, date, time, notes, created_by, reminder_sent, created_at, updated_at`

// Create inserts a new appointment
func (r *appointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, visitor_name, subject, date, time, notes, created_by, reminder_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.VisitorName, a.Subject, a.Date, a.Time, a.Notes, a.CreatedBy,
		time.Now(),
	)
	return err
}

// GetByID retrieves an appointment by ID
func (r *appointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var a models.Appointment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.VisitorName, &a.Subject, &a.Date, &a.Time, &a.Notes,
		&a.CreatedBy, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// Update rewrites an appointment's editable fields. Any edit restarts the
// reminder lifecycle, so reminder_sent goes back to FALSE here.
func (r *appointmentRepo) Update(ctx context.Context, a *models.Appointment) error {
	query := `
		UPDATE appointments
		SET visitor_name = $2, subject = $3, date = $4, time = $5, notes = $6,
		    reminder_sent = FALSE, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		a.ID, a.VisitorName, a.Subject, a.Date, a.Time, a.Notes,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes an appointment. No soft delete.
func (r *appointmentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListAll retrieves every appointment
func (r *appointmentRepo) ListAll(ctx context.Context) ([]*models.Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+` FROM appointments`)
}

// ListByDate retrieves appointments on a single calendar date
func (r *appointmentRepo) ListByDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE date = $1`, date)
}

// ListFromDate retrieves appointments on or after a calendar date
func (r *appointmentRepo) ListFromDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	return r.list(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE date >= $1`, date)
}

// PendingReminders retrieves same-day appointments whose reminder has not
// fired yet. The date filter is an optimization; the sweeper still applies
// the lookahead window itself.
func (r *appointmentRepo) PendingReminders(ctx context.Context, date string) ([]*models.Appointment, error) {
	return r.list(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE date = $1 AND reminder_sent = FALSE`,
		date,
	)
}

// MarkReminderSent flips the reminder flag, but only if it is still unset.
// Returns false when another sweep already claimed the appointment, which
// keeps the flag monotonic under concurrent cycles.
func (r *appointmentRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE appointments SET reminder_sent = TRUE, updated_at = now()
		 WHERE id = $1 AND reminder_sent = FALSE`,
		id,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *appointmentRepo) list(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Appointment
	for rows.Next() {
		var a models.Appointment
		err := rows.Scan(
			&a.ID, &a.VisitorName, &a.Subject, &a.Date, &a.Time, &a.Notes,
			&a.CreatedBy, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
