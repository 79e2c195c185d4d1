// Package notify delivers push notifications to registered endpoint tokens.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
)

// TokenResult is the delivery outcome for a single endpoint token.
// Permanent means the endpoint is gone (unregistered device) and the token
// should be pruned rather than retried.
type TokenResult struct {
	Token     string
	Delivered bool
	Permanent bool
	Reason    string
}

// SendReport summarizes a multicast send.
type SendReport struct {
	Success int
	Failure int
	Results []TokenResult
}

// Sender delivers one message to a set of endpoint tokens and reports
// per-endpoint results. An empty token set is a local no-op success.
type Sender interface {
	Send(ctx context.Context, title, body string, tokens []string) (*SendReport, error)
}

// httpSender posts multicast messages to an FCM-compatible endpoint.
type httpSender struct {
	endpoint  string
	serverKey string
	client    *http.Client
	log       zerolog.Logger
}

// NewHTTPSender creates a Sender backed by the configured push endpoint.
// Every send is bounded by the configured timeout; the provider never gets
// to hang a sweep cycle.
func NewHTTPSender(cfg *config.PushConfig, log zerolog.Logger) Sender {
	return &httpSender{
		endpoint:  cfg.Endpoint,
		serverKey: cfg.ServerKey,
		client:    &http.Client{Timeout: cfg.SendTimeout},
		log:       log.With().Str("component", "push").Logger(),
	}
}

type multicastRequest struct {
	RegistrationIDs []string              `json:"registration_ids"`
	Notification    multicastNotification `json:"notification"`
}

type multicastNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type multicastResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send delivers title/body to all tokens in one multicast request.
func (s *httpSender) Send(ctx context.Context, title, body string, tokens []string) (*SendReport, error) {
	if len(tokens) == 0 {
		return &SendReport{}, nil
	}

	payload, err := json.Marshal(multicastRequest{
		RegistrationIDs: tokens,
		Notification:    multicastNotification{Title: title, Body: body},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push provider returned status %d", resp.StatusCode)
	}

	var mr multicastResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("failed to decode push response: %w", err)
	}

	report := &SendReport{
		Success: mr.Success,
		Failure: mr.Failure,
		Results: make([]TokenResult, 0, len(tokens)),
	}
	for i, token := range tokens {
		tr := TokenResult{Token: token, Delivered: true}
		if i < len(mr.Results) && mr.Results[i].Error != "" {
			tr.Delivered = false
			tr.Reason = mr.Results[i].Error
			tr.Permanent = isPermanentError(mr.Results[i].Error)
		}
		report.Results = append(report.Results, tr)
	}

	s.log.Debug().
		Int("tokens", len(tokens)).
		Int("success", report.Success).
		Int("failure", report.Failure).
		Dur("duration", time.Since(start)).
		Msg("Push multicast completed")

	return report, nil
}

// isPermanentError reports whether the provider error means the token will
// never be deliverable again.
func isPermanentError(reason string) bool {
	switch reason {
	case "NotRegistered", "InvalidRegistration", "MismatchSenderId":
		return true
	}
	return false
}
