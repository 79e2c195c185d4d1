package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/mocks"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/notify"
	"github.com/mayor-schedule-api/internal/repository"
)

func newTestNotifier(appts *mocks.MockAppointmentRepository, users *mocks.MockUserRepository, sender *mocks.MockSender) *notifierService {
	repos := &repository.Repositories{Appointment: appts, User: users}
	return newNotifierService(repos, sender, metrics.NewCollector(prometheus.NewRegistry()), zerolog.Nop())
}

func TestNotifier_MissingAppointment(t *testing.T) {
	s := newTestNotifier(mocks.NewMockAppointmentRepository(), mocks.NewMockUserRepository(), mocks.NewMockSender())

	_, err := s.Notify(context.Background(), "nope", models.NotificationNew)
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNotifier_NoRecipientsIsNotAnError(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	addAppointment(appts, "a1", "2026-03-10", "14:30")

	// A secretary with a token is not a recipient; only mayors are.
	ctx := context.Background()
	users.Create(ctx, &models.User{ID: "sec-1", Role: models.RoleSecretary, Status: models.StatusActive})
	users.AddPushToken(ctx, "sec-1", "sec-token")

	s := newTestNotifier(appts, users, sender)
	result, err := s.Notify(ctx, "a1", models.NotificationNew)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if !result.NoRecipients {
		t.Error("expected NoRecipients marker")
	}
	if sender.CallCount() != 0 {
		t.Errorf("expected no send without mayor endpoints, got %d", sender.CallCount())
	}
}

func TestNotifier_MulticastsToEveryMayorDevice(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	ctx := context.Background()

	appts.Create(ctx, &models.Appointment{
		ID:          "a1",
		VisitorName: "Ahmad",
		Subject:     "Infrastructure review",
		Date:        "2026-03-10",
		Time:        "14:30",
	})
	addMayorWithToken(t, users, "mayor-1", "phone-token", "tablet-token")

	s := newTestNotifier(appts, users, sender)
	result, err := s.Notify(ctx, "a1", models.NotificationNew)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if result.Sent != 2 || result.Failed != 0 {
		t.Errorf("expected sent=2 failed=0, got %+v", result)
	}

	call := sender.LastCall()
	if call == nil {
		t.Fatal("expected a send")
	}
	if call.Title != "New Appointment Scheduled" {
		t.Errorf("unexpected title %q", call.Title)
	}
	if !strings.Contains(call.Body, "Ahmad") || !strings.Contains(call.Body, "Infrastructure review") {
		t.Errorf("body should carry visitor and subject, got %q", call.Body)
	}
	got := append([]string(nil), call.Tokens...)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "phone-token" || got[1] != "tablet-token" {
		t.Errorf("expected both devices in one multicast, got %v", got)
	}
}

func TestNotifier_PrunesPermanentlyDeadTokens(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	ctx := context.Background()

	addAppointment(appts, "a1", "2026-03-10", "14:30")
	addMayorWithToken(t, users, "mayor-1", "live-token", "dead-token")

	sender.ResultFunc = func(tokens []string) *notify.SendReport {
		report := &notify.SendReport{}
		for _, token := range tokens {
			if token == "dead-token" {
				report.Failure++
				report.Results = append(report.Results, notify.TokenResult{Token: token, Permanent: true, Reason: "NotRegistered"})
				continue
			}
			report.Success++
			report.Results = append(report.Results, notify.TokenResult{Token: token, Delivered: true})
		}
		return report
	}

	s := newTestNotifier(appts, users, sender)
	result, err := s.Notify(ctx, "a1", models.NotificationReminder)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if result.Sent != 1 || result.Failed != 1 {
		t.Errorf("expected sent=1 failed=1, got %+v", result)
	}

	tokens, _ := users.ListTokensForRole(ctx, models.RoleMayor)
	if len(tokens) != 1 || tokens[0] != "live-token" {
		t.Errorf("dead token should be pruned, remaining %v", tokens)
	}
}

func TestNotifier_SendErrorIsDeliveryError(t *testing.T) {
	appts := mocks.NewMockAppointmentRepository()
	users := mocks.NewMockUserRepository()
	sender := mocks.NewMockSender()
	ctx := context.Background()

	addAppointment(appts, "a1", "2026-03-10", "14:30")
	addMayorWithToken(t, users, "mayor-1", "token-1")
	sender.Err = errors.New("provider down")

	s := newTestNotifier(appts, users, sender)
	_, err := s.Notify(ctx, "a1", models.NotificationNew)

	var delivery *models.DeliveryError
	if !errors.As(err, &delivery) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if delivery.Attempted != 1 {
		t.Errorf("expected attempted=1, got %d", delivery.Attempted)
	}
}
