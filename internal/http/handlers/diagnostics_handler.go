package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/plumbline-ai/sarah-booking/internal/calllog"
	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// diagnosticsPlatform is the read-only platform surface the operator
// endpoints expose.
type diagnosticsPlatform interface {
	BusinessUnits(ctx context.Context) ([]servicetitan.BusinessUnit, error)
	JobTypes(ctx context.Context) ([]servicetitan.JobType, error)
	Campaigns(ctx context.Context) ([]servicetitan.Campaign, error)
	CallsFrom(ctx context.Context, phone string, since time.Time) ([]servicetitan.Call, error)
	InvoicesForJob(ctx context.Context, jobID int64) ([]servicetitan.Invoice, error)
	PricebookServices(ctx context.Context, page, pageSize int) (*servicetitan.Page[servicetitan.PricebookService], error)
	GetCapacity(ctx context.Context, req servicetitan.CapacityRequest) (*servicetitan.CapacityResponse, error)
}

// DiagnosticsHandler exposes read-only platform and call-log lookups for
// operators. These are plain JSON endpoints, not conversational ones.
type DiagnosticsHandler struct {
	platform diagnosticsPlatform
	records  calllog.Repository
	logger   *logging.Logger
}

// NewDiagnosticsHandler creates a DiagnosticsHandler. records may be nil.
func NewDiagnosticsHandler(platform diagnosticsPlatform, records calllog.Repository, logger *logging.Logger) *DiagnosticsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DiagnosticsHandler{platform: platform, records: records, logger: logger}
}

func (h *DiagnosticsHandler) upstreamError(w http.ResponseWriter, what string, err error) {
	h.logger.Error("diagnostics lookup failed", "what", what, "error", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": what + " lookup failed"})
}

// HandleSTConfig is GET /api/st-config. It lists the active business units
// and job types so operators can verify the routing ids.
func (h *DiagnosticsHandler) HandleSTConfig(w http.ResponseWriter, r *http.Request) {
	units, err := h.platform.BusinessUnits(r.Context())
	if err != nil {
		h.upstreamError(w, "business units", err)
		return
	}
	types, err := h.platform.JobTypes(r.Context())
	if err != nil {
		h.upstreamError(w, "job types", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"businessUnits": units,
		"jobTypes":      types,
	})
}

// HandleCampaigns is GET /api/campaign-debug.
func (h *DiagnosticsHandler) HandleCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.platform.Campaigns(r.Context())
	if err != nil {
		h.upstreamError(w, "campaigns", err)
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// HandleCalls is GET /api/telecom-debug?phone=<digits>&hours=<n>.
func (h *DiagnosticsHandler) HandleCalls(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "phone is required"})
		return
	}
	hours, _ := strconv.Atoi(r.URL.Query().Get("hours"))
	if hours <= 0 {
		hours = 24
	}
	calls, err := h.platform.CallsFrom(r.Context(), phone, time.Now().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		h.upstreamError(w, "calls", err)
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

// HandleInvoices is GET /api/invoice-debug?jobId=<id>.
func (h *DiagnosticsHandler) HandleInvoices(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(r.URL.Query().Get("jobId"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "jobId is required"})
		return
	}
	invoices, err := h.platform.InvoicesForJob(r.Context(), jobID)
	if err != nil {
		h.upstreamError(w, "invoices", err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

// HandlePricebook is GET /api/pricebook-debug?page=<n>.
func (h *DiagnosticsHandler) HandlePricebook(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	services, err := h.platform.PricebookServices(r.Context(), page, 100)
	if err != nil {
		h.upstreamError(w, "pricebook", err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// HandleCallLog is GET /api/call-log-debug?callId=<id> or ?phone=<digits>&limit=<n>.
// It reads back what the service recorded for a call so operators can check
// lead classification and booking outcomes without database access.
func (h *DiagnosticsHandler) HandleCallLog(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "call log not configured"})
		return
	}

	if callID := r.URL.Query().Get("callId"); callID != "" {
		rec, err := h.records.GetByCallID(r.Context(), callID)
		if errors.Is(err, calllog.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no record for call id"})
			return
		}
		if err != nil {
			h.logger.Error("call log lookup failed", "call_id", callID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "call log lookup failed"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "callId or phone is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 10
	}
	recs, err := h.records.RecentByPhone(r.Context(), phone, limit)
	if err != nil {
		h.logger.Error("call log lookup failed", "phone", phone, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "call log lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// HandleCapacity is GET /api/capacity-debug?days=<n>. It returns the raw slot
// list over the next n days so operators can compare against the reduced
// availability the agent offers.
func (h *DiagnosticsHandler) HandleCapacity(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 5
	}

	nowLocal := schedule.EasternNow(time.Now())
	span := schedule.BusinessDays(nowLocal, days)
	first, last := span[0], span[len(span)-1]

	resp, err := h.platform.GetCapacity(r.Context(), servicetitan.CapacityRequest{
		StartsOnOrAfter: schedule.LocalHourToUTC(first.Year(), first.Month(), first.Day(), schedule.Morning.StartHour),
		EndsOnOrBefore:  schedule.LocalHourToUTC(last.Year(), last.Month(), last.Day(), schedule.Afternoon.EndHour),
	})
	if err != nil {
		h.upstreamError(w, "capacity", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
