package mocks

import (
	"context"
	"sync"

	"github.com/mayor-schedule-api/internal/models"
)

// MockAppointmentRepository is an in-memory implementation of
// repository.AppointmentRepository
type MockAppointmentRepository struct {
	mu           sync.Mutex
	Appointments map[string]*models.Appointment
	ListError    error
	UpdateError  error
}

func NewMockAppointmentRepository() *MockAppointmentRepository {
	return &MockAppointmentRepository{
		Appointments: make(map[string]*models.Appointment),
	}
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *a
	m.Appointments[a.ID] = &stored
	return nil
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Appointments[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *MockAppointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	existing, ok := m.Appointments[a.ID]
	if !ok {
		return models.ErrNotFound
	}
	existing.VisitorName = a.VisitorName
	existing.Subject = a.Subject
	existing.Date = a.Date
	existing.Time = a.Time
	existing.Notes = a.Notes
	existing.ReminderSent = false
	return nil
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Appointments[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.Appointments, id)
	return nil
}

func (m *MockAppointmentRepository) ListAll(ctx context.Context) ([]*models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return true })
}

func (m *MockAppointmentRepository) ListByDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.Date == date })
}

func (m *MockAppointmentRepository) ListFromDate(ctx context.Context, date string) ([]*models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.Date >= date })
}

func (m *MockAppointmentRepository) PendingReminders(ctx context.Context, date string) ([]*models.Appointment, error) {
	return m.list(func(a *models.Appointment) bool { return a.Date == date && !a.ReminderSent })
}

func (m *MockAppointmentRepository) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Appointments[id]
	if !ok || a.ReminderSent {
		return false, nil
	}
	a.ReminderSent = true
	return true, nil
}

func (m *MockAppointmentRepository) list(keep func(*models.Appointment) bool) ([]*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListError != nil {
		return nil, m.ListError
	}
	var out []*models.Appointment
	for _, a := range m.Appointments {
		if keep(a) {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MockUserRepository is an in-memory implementation of
// repository.UserRepository
type MockUserRepository struct {
	mu         sync.Mutex
	Users      map[string]*models.User
	Tokens     map[string]map[string]struct{} // user ID -> token set
	TokensErr  error
	PrunedLogs []string
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:  make(map[string]*models.User),
		Tokens: make(map[string]map[string]struct{}),
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Users[user.ID]; ok {
		return nil // idempotent registration
	}
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.Users {
		copied := *u
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockUserRepository) UpdateRoleStatus(ctx context.Context, id string, role models.Role, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[id]
	if !ok {
		return models.ErrNotFound
	}
	if role != "" {
		u.Role = role
	}
	if status != "" {
		u.Status = status
	}
	return nil
}

func (m *MockUserRepository) anyAdminLocked() bool {
	for _, u := range m.Users {
		if u.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

func (m *MockUserRepository) PromoteFirstAdmin(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.anyAdminLocked() {
		return models.ErrAdminExists
	}
	u, ok := m.Users[id]
	if !ok {
		u = &models.User{ID: id}
		m.Users[id] = u
	}
	u.Role = models.RoleAdmin
	u.Status = models.StatusActive
	return nil
}

func (m *MockUserRepository) AddPushToken(ctx context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Tokens[userID] == nil {
		m.Tokens[userID] = make(map[string]struct{})
	}
	m.Tokens[userID][token] = struct{}{}
	return nil
}

func (m *MockUserRepository) DeletePushToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, set := range m.Tokens {
		if _, ok := set[token]; ok {
			delete(set, token)
			m.PrunedLogs = append(m.PrunedLogs, token)
		}
	}
	return nil
}

func (m *MockUserRepository) ListTokensForRole(ctx context.Context, role models.Role) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TokensErr != nil {
		return nil, m.TokensErr
	}
	var out []string
	for id, u := range m.Users {
		if u.Role != role || u.Status != models.StatusActive {
			continue
		}
		for token := range m.Tokens[id] {
			out = append(out, token)
		}
	}
	return out, nil
}
