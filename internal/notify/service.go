// Package notify posts call summaries to the operations chat channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// CallReport is the summary posted to chat after each processed call.
type CallReport struct {
	CustomerName string
	Phone        string
	Address      string
	Issue        string
	DurationMS   int64
	IsLead       bool
	Booked       bool
	JobNumber    string
	Day          string
	Window       string
	Transcript   string
}

// Service posts formatted call summaries to a chat webhook. Delivery is fire
// and forget: failures are logged and never surfaced to the caller.
type Service struct {
	webhookURL string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a notification service. An empty webhookURL disables delivery.
func New(webhookURL string, timeout time.Duration, logger *logging.Logger) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Notify sends the report asynchronously. Safe to call on a nil service.
func (s *Service) Notify(report CallReport) {
	if s == nil || s.webhookURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout)
		defer cancel()
		if err := s.Send(ctx, report); err != nil {
			s.logger.Warn("chat notification failed", "error", err)
		}
	}()
}

// Send posts the report synchronously. Exposed for tests and for callers
// that want delivery confirmation.
func (s *Service) Send(ctx context.Context, report CallReport) error {
	payload, err := json.Marshal(map[string]string{"text": FormatReport(report)})
	if err != nil {
		return fmt.Errorf("notify: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}
	return nil
}

// maxTranscriptExcerpt keeps chat messages readable; full transcripts live
// in the call log.
const maxTranscriptExcerpt = 500

// FormatReport renders the chat message body.
func FormatReport(r CallReport) string {
	var b strings.Builder

	switch {
	case r.Booked:
		fmt.Fprintf(&b, "📅 *Booked* job %s for %s (%s %s)\n", r.JobNumber, orDash(r.CustomerName), r.Day, r.Window)
	case r.IsLead:
		fmt.Fprintf(&b, "🔔 *Lead* from %s (not yet booked)\n", orDash(r.CustomerName))
	default:
		fmt.Fprintf(&b, "📞 Call from %s\n", orDash(r.CustomerName))
	}

	fmt.Fprintf(&b, "Phone: %s\n", orDash(r.Phone))
	fmt.Fprintf(&b, "Address: %s\n", orDash(r.Address))
	fmt.Fprintf(&b, "Issue: %s\n", orDash(r.Issue))
	fmt.Fprintf(&b, "Duration: %ds\n", r.DurationMS/1000)

	if t := strings.TrimSpace(r.Transcript); t != "" {
		if len(t) > maxTranscriptExcerpt {
			t = t[:maxTranscriptExcerpt] + "…"
		}
		fmt.Fprintf(&b, "Transcript: %s", t)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
