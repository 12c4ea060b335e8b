package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/plumbline-ai/sarah-booking/internal/booking"
	"github.com/plumbline-ai/sarah-booking/internal/calllog"
	"github.com/plumbline-ai/sarah-booking/internal/calls"
	"github.com/plumbline-ai/sarah-booking/internal/notify"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// callEvent is the voice platform's call-lifecycle webhook payload.
type callEvent struct {
	Event string `json:"event"`
	Call  struct {
		CallID     string `json:"call_id"`
		FromNumber string `json:"from_number"`
		ToNumber   string `json:"to_number"`
		Transcript string `json:"transcript"`
		DurationMS int64  `json:"duration_ms"`
		Analysis   struct {
			Summary    string       `json:"call_summary"`
			CustomData analysisData `json:"custom_analysis_data"`
		} `json:"call_analysis"`
	} `json:"call"`
}

// analysisData is the structured data the voice agent collected mid-call.
// It reuses the booking wire aliases plus the booked flag.
type analysisData struct {
	booking.Wire
	BookingConfirmed bool `json:"booking_confirmed"`
}

type transcriptExtractor interface {
	Extract(ctx context.Context, transcript string) (*calls.Extracted, error)
}

// PostCallHandler processes the call-ended webhook: it classifies the call,
// books from the transcript when the agent did not book mid-call, writes the
// call log, and posts the chat summary.
type PostCallHandler struct {
	bookings  bookingService
	extractor transcriptExtractor
	records   calllog.Repository
	notifier  *notify.Service
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// PostCallHandlerConfig configures the PostCallHandler. Every dependency
// except Bookings may be nil.
type PostCallHandlerConfig struct {
	Bookings  bookingService
	Extractor transcriptExtractor
	Records   calllog.Repository
	Notifier  *notify.Service
	Logger    *logging.Logger
	Metrics   *metrics.Metrics
}

// NewPostCallHandler creates a PostCallHandler.
func NewPostCallHandler(cfg PostCallHandlerConfig) *PostCallHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &PostCallHandler{
		bookings:  cfg.Bookings,
		extractor: cfg.Extractor,
		records:   cfg.Records,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// HandlePostCall is POST /api/post-call. The voice platform may redeliver the
// same event; the booking path's idempotency claim absorbs that.
func (h *PostCallHandler) HandlePostCall(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordWebhook("post-call")

	var event callEvent
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("post-call payload unreadable", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
		return
	}

	if event.Event != "" && event.Event != "call_ended" && event.Event != "call_analyzed" {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored", "event": event.Event})
		return
	}

	ctx := r.Context()
	call := event.Call
	analysis := call.Analysis.CustomData

	req := h.bookingRequest(ctx, event)

	isLead := calls.IsLead(calls.Summary{
		SummaryText:      call.Analysis.Summary,
		Transcript:       call.Transcript,
		DurationMS:       call.DurationMS,
		BookingConfirmed: analysis.BookingConfirmed,
		HasAddress:       req.Street != "",
		HasSchedule:      req.Window != "",
		Issue:            req.Issue,
	})

	var result *booking.Result
	if isLead && !analysis.BookingConfirmed && req.Window != "" {
		result = h.bookings.Book(ctx, req)
		if result.Booked() {
			h.logger.Info("post-call booking created", "call_id", call.CallID, "job_id", result.JobID)
		}
	}

	h.record(ctx, event, req, isLead, result)
	h.notifier.Notify(h.report(event, req, isLead, result))

	resp := map[string]any{"status": "ok", "is_lead": isLead}
	if result != nil {
		resp["booking_status"] = result.Status
		resp["booked"] = result.Booked()
	}
	writeJSON(w, http.StatusOK, resp)
}

// bookingRequest folds the mid-call analysis fields with transcript
// extraction. Extraction only fills gaps; fields the agent collected live
// win over model output.
func (h *PostCallHandler) bookingRequest(ctx context.Context, event callEvent) booking.Request {
	call := event.Call
	req := call.Analysis.CustomData.Wire.Canonical()
	req.CallID = call.CallID
	if req.Phone == "" {
		req.Phone = call.FromNumber
	}

	if h.extractor == nil || call.Transcript == "" || len(req.MissingRequired()) == 0 {
		return req
	}

	extracted, err := h.extractor.Extract(ctx, call.Transcript)
	if err != nil {
		if !errors.Is(err, calls.ErrExtraction) {
			h.logger.Error("transcript extraction failed", "call_id", call.CallID, "error", err)
		} else {
			h.logger.Warn("transcript extraction failed", "call_id", call.CallID, "error", err)
		}
		return req
	}
	if !extracted.WantsBooking {
		return req
	}

	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = strings.TrimSpace(src)
		}
	}
	fill(&req.Name, extracted.Name)
	fill(&req.Phone, extracted.Phone)
	fill(&req.Street, extracted.Street)
	fill(&req.City, extracted.City)
	fill(&req.Zip, extracted.Zip)
	fill(&req.Issue, extracted.Issue)
	fill(&req.Day, extracted.Day)
	fill(&req.Window, extracted.TimeWindow)
	return req
}

func (h *PostCallHandler) record(ctx context.Context, event callEvent, req booking.Request, isLead bool, result *booking.Result) {
	if h.records == nil {
		return
	}
	rec := &calllog.Record{
		CallID:     event.Call.CallID,
		Phone:      req.Phone,
		DurationMS: event.Call.DurationMS,
		IsLead:     isLead,
		Issue:      req.Issue,
		Summary:    event.Call.Analysis.Summary,
		Transcript: event.Call.Transcript,
	}
	if result != nil {
		rec.Status = string(result.Status)
		rec.Booked = result.Booked()
		rec.CustomerID = result.CustomerID
		rec.JobID = result.JobID
	} else if event.Call.Analysis.CustomData.BookingConfirmed {
		rec.Status = string(booking.StatusBooked)
		rec.Booked = true
	}
	if err := h.records.Create(ctx, rec); err != nil {
		h.logger.Warn("call log write failed", "call_id", event.Call.CallID, "error", err)
	}
}

func (h *PostCallHandler) report(event callEvent, req booking.Request, isLead bool, result *booking.Result) notify.CallReport {
	report := notify.CallReport{
		CustomerName: req.Name,
		Phone:        req.Phone,
		Address:      joinAddress(req),
		Issue:        req.Issue,
		DurationMS:   event.Call.DurationMS,
		IsLead:       isLead,
		Booked:       event.Call.Analysis.CustomData.BookingConfirmed,
		Transcript:   event.Call.Transcript,
	}
	if result != nil && result.Booked() {
		report.Booked = true
		report.JobNumber = result.JobNumber
		report.Day = result.Day
		report.Window = result.Window
	}
	return report
}

func joinAddress(req booking.Request) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{req.Street, req.City, req.Zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
