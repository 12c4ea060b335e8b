package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plumbline-ai/sarah-booking/internal/identity"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// inboundEvent is the call-started webhook. The reply's dynamic variables
// are injected into the agent's prompt before it greets the caller.
type inboundEvent struct {
	Event   string `json:"event"`
	Inbound struct {
		FromNumber string `json:"from_number"`
		ToNumber   string `json:"to_number"`
	} `json:"call_inbound"`
}

type inboundReply struct {
	Inbound struct {
		DynamicVariables map[string]string `json:"dynamic_variables"`
	} `json:"call_inbound"`
}

// InboundHandler primes the agent at call start with who is calling and
// what windows are open.
type InboundHandler struct {
	customers    customerLookup
	availability availabilitySource
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// NewInboundHandler creates an InboundHandler.
func NewInboundHandler(customers customerLookup, availability availabilitySource, logger *logging.Logger, m *metrics.Metrics) *InboundHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &InboundHandler{customers: customers, availability: availability, logger: logger, metrics: m}
}

// HandleInbound is POST /api/inbound-webhook. Lookup failures degrade to an
// anonymous greeting; this endpoint must never block a call from connecting.
func (h *InboundHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordWebhook("inbound-webhook")

	vars := map[string]string{
		"known_customer":   "false",
		"customer_name":    "",
		"has_availability": "false",
		"today_date":       schedule.EasternNow(time.Now()).Format("Monday, January 2, 2006"),
	}

	var event inboundEvent
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("inbound payload unreadable", "error", err)
		h.reply(w, vars)
		return
	}

	// Both lookups race the agent's greeting, so run them together.
	var (
		customer *servicetitan.Customer
		avail    *schedule.Availability
	)
	g, ctx := errgroup.WithContext(r.Context())
	if phone, err := identity.NormalizePhone(event.Inbound.FromNumber); err == nil {
		g.Go(func() error {
			c, err := h.customers.LookupByPhone(ctx, phone)
			if err != nil {
				h.logger.Warn("inbound customer lookup failed", "error", err)
				return nil
			}
			customer = c
			return nil
		})
	}
	g.Go(func() error {
		a, err := h.availability.Resolve(ctx)
		if err != nil {
			h.logger.Warn("inbound availability lookup failed", "error", err)
			return nil
		}
		avail = a
		return nil
	})
	_ = g.Wait()

	if customer != nil {
		vars["known_customer"] = "true"
		vars["customer_name"] = customer.Name
		vars["customer_street"] = customer.Address.Street
		vars["customer_city"] = customer.Address.City
		vars["customer_zip"] = customer.Address.Zip
	}
	if avail != nil {
		h.metrics.RecordAvailability(avail.Degraded)
		if len(avail.Days) > 0 {
			vars["has_availability"] = "true"
		}
		vars["available_slots"] = SpeakAvailability(avail)
	}

	h.reply(w, vars)
}

func (h *InboundHandler) reply(w http.ResponseWriter, vars map[string]string) {
	var reply inboundReply
	reply.Inbound.DynamicVariables = vars
	writeJSON(w, http.StatusOK, reply)
}
