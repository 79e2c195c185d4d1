package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
)

func newTestSender(endpoint string) Sender {
	return NewHTTPSender(&config.PushConfig{
		Endpoint:    endpoint,
		ServerKey:   "server-key",
		SendTimeout: 5 * time.Second,
	}, zerolog.Nop())
}

func TestHTTPSender_Multicast(t *testing.T) {
	var gotAuth string
	var gotReq multicastRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": 1,
			"failure": 1,
			"results": []map[string]string{
				{"message_id": "m1"},
				{"error": "NotRegistered"},
			},
		})
	}))
	defer srv.Close()

	report, err := newTestSender(srv.URL).Send(context.Background(), "Title", "Body", []string{"tok-live", "tok-dead"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if gotAuth != "key=server-key" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if len(gotReq.RegistrationIDs) != 2 || gotReq.Notification.Title != "Title" || gotReq.Notification.Body != "Body" {
		t.Errorf("unexpected request payload: %+v", gotReq)
	}

	if report.Success != 1 || report.Failure != 1 {
		t.Errorf("report success=%d failure=%d", report.Success, report.Failure)
	}
	if len(report.Results) != 2 {
		t.Fatalf("expected 2 per-token results, got %d", len(report.Results))
	}
	if !report.Results[0].Delivered || report.Results[0].Token != "tok-live" {
		t.Errorf("first result: %+v", report.Results[0])
	}
	dead := report.Results[1]
	if dead.Delivered || !dead.Permanent || dead.Reason != "NotRegistered" {
		t.Errorf("dead token should be a permanent failure: %+v", dead)
	}
}

func TestHTTPSender_EmptyTokensSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty token set")
	}))
	defer srv.Close()

	report, err := newTestSender(srv.URL).Send(context.Background(), "Title", "Body", nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if report.Success != 0 || report.Failure != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestHTTPSender_ProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestSender(srv.URL).Send(context.Background(), "Title", "Body", []string{"tok"}); err == nil {
		t.Error("expected error on non-200 provider response")
	}
}

func TestIsPermanentError(t *testing.T) {
	permanent := []string{"NotRegistered", "InvalidRegistration", "MismatchSenderId"}
	for _, reason := range permanent {
		if !isPermanentError(reason) {
			t.Errorf("%s should be permanent", reason)
		}
	}
	for _, reason := range []string{"Unavailable", "InternalServerError", ""} {
		if isPermanentError(reason) {
			t.Errorf("%s should be retryable", reason)
		}
	}
}
