package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/plumbline-ai/sarah-booking/internal/identity"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

type customerLookup interface {
	LookupByPhone(ctx context.Context, phone string) (*servicetitan.Customer, error)
}

type availabilitySource interface {
	Resolve(ctx context.Context) (*schedule.Availability, error)
}

// CheckHandler answers the mid-call lookup tools: is this an existing
// customer, and what windows are open this week.
type CheckHandler struct {
	customers    customerLookup
	availability availabilitySource
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// NewCheckHandler creates a CheckHandler.
func NewCheckHandler(customers customerLookup, availability availabilitySource, logger *logging.Logger, m *metrics.Metrics) *CheckHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CheckHandler{customers: customers, availability: availability, logger: logger, metrics: m}
}

type checkCustomerRequest struct {
	Phone      string `json:"phone"`
	FromNumber string `json:"from_number"`
	CallerID   string `json:"caller_phone"`
}

// HandleCheckCustomer is POST /api/check-customer.
func (h *CheckHandler) HandleCheckCustomer(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordWebhook("check-customer")

	var req checkCustomerRequest
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err := json.Unmarshal(body, &req); err != nil {
		speak(w, "I'm sorry, could you give me your phone number again?", false, nil)
		return
	}

	// Unsubstituted template placeholders arrive verbatim from the agent and
	// mean the variable was never set.
	raw := ""
	for _, candidate := range []string{req.Phone, req.FromNumber, req.CallerID} {
		if candidate != "" && !strings.Contains(candidate, "{{") {
			raw = candidate
			break
		}
	}

	phone, err := identity.NormalizePhone(raw)
	if err != nil {
		speak(w, "I didn't catch a valid phone number. Could you say it again with the area code?", false, nil)
		return
	}

	customer, err := h.customers.LookupByPhone(r.Context(), phone)
	if err != nil {
		h.logger.Error("customer lookup failed", "error", err)
		speak(w, "I'm having a little trouble pulling up accounts right now, but I can still get you scheduled.", false, nil)
		return
	}

	if customer == nil {
		speak(w, "I don't see an account under this number yet. I can set one up while we schedule your visit.", true, map[string]any{"found": false})
		return
	}

	result := fmt.Sprintf("Welcome back, %s!", customer.Name)
	if customer.Address.Street != "" {
		result = fmt.Sprintf("Welcome back, %s! Are you calling about service at %s?", customer.Name, customer.Address.Street)
	}
	speak(w, result, true, map[string]any{
		"found":       true,
		"customer_id": customer.ID,
		"name":        customer.Name,
		"street":      customer.Address.Street,
		"city":        customer.Address.City,
		"zip":         customer.Address.Zip,
	})
}

// HandleCheckAvailability is POST /api/check-availability.
func (h *CheckHandler) HandleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordWebhook("check-availability")

	avail, err := h.availability.Resolve(r.Context())
	if err != nil {
		// Resolve fails soft internally; this is a belt-and-braces path.
		h.logger.Error("availability resolution failed", "error", err)
		speak(w, "We should have openings this week. What day works best for you?", true, nil)
		return
	}
	h.metrics.RecordAvailability(avail.Degraded)

	speak(w, SpeakAvailability(avail), true, avail)
}

// SpeakAvailability renders at most the first three offerable days as a
// spoken sentence.
func SpeakAvailability(avail *schedule.Availability) string {
	if len(avail.Days) == 0 {
		return "I'm not seeing any open arrival windows in the next few days. Let me have our office reach out to get you scheduled."
	}

	days := avail.Days
	if len(days) > 3 {
		days = days[:3]
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, fmt.Sprintf("%s %s", d.Day, joinSpoken(d.Windows)))
	}

	if avail.Degraded {
		return "We should have openings " + strings.Join(parts, "; ") + ". What works best for you?"
	}
	return "Here's what we have open: " + strings.Join(parts, "; ") + ". What works best for you?"
}

func joinSpoken(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " or " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", or " + items[len(items)-1]
	}
}
