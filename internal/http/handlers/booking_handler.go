package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/plumbline-ai/sarah-booking/internal/booking"
	"github.com/plumbline-ai/sarah-booking/internal/calllog"
	"github.com/plumbline-ai/sarah-booking/internal/identity"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

type bookingService interface {
	Book(ctx context.Context, req booking.Request) *booking.Result
}

// BookingHandler exposes the book-appointment tool the agent invokes once it
// has collected the caller's details.
type BookingHandler struct {
	bookings bookingService
	records  calllog.Repository
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewBookingHandler creates a BookingHandler. records may be nil.
func NewBookingHandler(bookings bookingService, records calllog.Repository, logger *logging.Logger, m *metrics.Metrics) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{bookings: bookings, records: records, logger: logger, metrics: m}
}

// HandleBookAppointment is POST /api/book-appointment.
func (h *BookingHandler) HandleBookAppointment(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordWebhook("book-appointment")

	var wire booking.Wire
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err := json.Unmarshal(body, &wire); err != nil {
		speak(w, "I'm sorry, I didn't get all of that. Could we go over the details once more?", false, nil)
		return
	}

	req := wire.Canonical()
	result := h.bookings.Book(r.Context(), req)
	h.record(r.Context(), req, result)
	speak(w, SpeakResult(result), result.Booked() || result.Status == booking.StatusDuplicate, result)
}

// record persists the attempt to the call log; failures only log.
func (h *BookingHandler) record(ctx context.Context, req booking.Request, res *booking.Result) {
	if h.records == nil {
		return
	}
	phone := req.Phone
	if p, err := identity.NormalizePhone(req.Phone); err == nil {
		phone = p
	}
	err := h.records.Create(ctx, &calllog.Record{
		CallID:     req.CallID,
		Phone:      phone,
		CustomerID: res.CustomerID,
		JobID:      res.JobID,
		IsLead:     true,
		Booked:     res.Booked(),
		Status:     string(res.Status),
		Issue:      req.Issue,
	})
	if err != nil {
		h.logger.Warn("call log write failed", "error", err)
	}
}

// SpeakResult converts a booking result to the sentence the agent reads out.
// Internal failure detail never reaches the caller.
func SpeakResult(res *booking.Result) string {
	switch res.Status {
	case booking.StatusBooked:
		window, _ := schedule.WindowByName(res.Window)
		return fmt.Sprintf("You're all set! We have a technician coming %s, %s. Your job number is %s.",
			res.Day, windowSpoken(window), res.JobNumber)
	case booking.StatusDuplicate:
		return "Good news, you're already on our schedule from this call. We have your appointment booked."
	case booking.StatusMissingFields:
		return fmt.Sprintf("I just need one more thing before I can book that. Could you give me your %s?", res.Missing[0])
	case booking.StatusInvalidPhone:
		return "I didn't catch a valid phone number. Could you say it again with the area code?"
	default:
		return "I'm sorry, something went wrong on my end while booking that. Let's try one more time."
	}
}
