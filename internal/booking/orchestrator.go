package booking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/plumbline-ai/sarah-booking/internal/identity"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

var tracer = otel.Tracer("sarah-booking/booking")

// Platform is the slice of the field-service API the orchestrator needs.
type Platform interface {
	JobsCreatedSince(ctx context.Context, customerID int64, since time.Time) ([]servicetitan.Job, error)
	CreateJob(ctx context.Context, nj servicetitan.NewJob) (*servicetitan.Job, error)
	InvoicesForJob(ctx context.Context, jobID int64) ([]servicetitan.Invoice, error)
	AddInvoiceItem(ctx context.Context, invoiceID int64, item servicetitan.InvoiceItem) error
}

// IdentityResolver is the slice of the identity package the orchestrator
// drives.
type IdentityResolver interface {
	LookupByPhone(ctx context.Context, phone string) (*servicetitan.Customer, error)
	Resolve(ctx context.Context, req identity.Request) (*identity.Resolution, error)
}

// Config configures the orchestrator.
type Config struct {
	Classifier         Classifier
	CampaignID         int64
	DispatchFeeSKU     int64
	DispatchFeeEnabled bool
	Now                func() time.Time
}

// Orchestrator runs one booking attempt end to end: validate, dedupe,
// resolve identity, resolve schedule, classify, create the job. It is
// strictly sequential with no retries; a failure after identity resolution
// can leave a customer or location without a job, which is accepted.
type Orchestrator struct {
	platform Platform
	identity IdentityResolver
	deduper  *Deduper
	cfg      Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewOrchestrator wires a booking orchestrator. deduper and m may be nil.
func NewOrchestrator(platform Platform, resolver IdentityResolver, deduper *Deduper, cfg Config, logger *logging.Logger, m *metrics.Metrics) *Orchestrator {
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		platform: platform,
		identity: resolver,
		deduper:  deduper,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		now:      nowFn,
	}
}

// Book executes one booking attempt. It never returns a transport error;
// every outcome is a Result the handler renders conversationally.
func (o *Orchestrator) Book(ctx context.Context, req Request) *Result {
	ctx, span := tracer.Start(ctx, "booking.book")
	defer span.End()

	result := o.book(ctx, req)
	span.SetAttributes(attribute.String("booking.status", string(result.Status)))
	o.metrics.RecordBooking(string(result.Status))
	return result
}

func (o *Orchestrator) book(ctx context.Context, req Request) *Result {
	// 1. Validate
	if missing := req.MissingRequired(); len(missing) > 0 {
		return &Result{Status: StatusMissingFields, Missing: missing}
	}
	phone, err := identity.NormalizePhone(req.Phone)
	if err != nil {
		return &Result{Status: StatusInvalidPhone}
	}
	window, ok := schedule.WindowByName(req.Window)
	if !ok {
		return &Result{Status: StatusMissingFields, Missing: []string{"time window"}}
	}

	// 2. Deduplicate: claim the call id, then look back at recent jobs.
	claimed, err := o.deduper.Claim(ctx, req.CallID)
	if err != nil {
		o.logger.Warn("dedupe claim failed, continuing with lookback only", "error", err)
	}
	if !claimed {
		o.logger.Info("duplicate booking suppressed by call id", "call_id", req.CallID)
		return &Result{Status: StatusDuplicate}
	}

	existing, err := o.identity.LookupByPhone(ctx, phone)
	if err != nil {
		o.release(req.CallID)
		return o.failed("customer lookup", err)
	}
	if existing != nil {
		recent, err := o.platform.JobsCreatedSince(ctx, existing.ID, o.now().Add(-o.dedupeWindow()))
		if err != nil {
			o.release(req.CallID)
			return o.failed("dedupe lookback", err)
		}
		if len(recent) > 0 {
			o.logger.Info("duplicate booking suppressed by recent job",
				"customer_id", existing.ID, "job_id", recent[0].ID)
			return &Result{Status: StatusDuplicate, JobID: recent[0].ID, CustomerID: existing.ID}
		}
	}

	// 3. Resolve identity
	resolution, err := o.identity.Resolve(ctx, identity.Request{
		Phone:  phone,
		Name:   req.Name,
		Street: req.Street,
		Unit:   req.Unit,
		City:   req.City,
		State:  req.State,
		Zip:    req.Zip,
	})
	if err != nil {
		o.release(req.CallID)
		return o.failed("identity resolution", err)
	}

	// 4. Resolve schedule
	nowLocal := schedule.EasternNow(o.now())
	date := schedule.ResolveTargetDate(req.Day, nowLocal)
	start, end := schedule.WindowBounds(date.Year(), date.Month(), date.Day(), window)

	// 5. Classify issue
	routing := o.cfg.Classifier.Classify(req.Issue)

	// 6. Create job
	job, err := o.platform.CreateJob(ctx, servicetitan.NewJob{
		CustomerID:     resolution.Customer.ID,
		LocationID:     resolution.Location.ID,
		BusinessUnitID: routing.BusinessUnitID,
		JobTypeID:      routing.JobTypeID,
		Priority:       "Normal",
		CampaignID:     o.cfg.CampaignID,
		Summary:        req.Issue,
		Appointments: []servicetitan.NewAppointment{{
			Start:              start,
			End:                end,
			ArrivalWindowStart: start,
			ArrivalWindowEnd:   end,
		}},
	})
	if err != nil {
		o.release(req.CallID)
		return o.failed("job creation", err)
	}

	if o.cfg.DispatchFeeEnabled {
		o.addDispatchFee(ctx, job.ID)
	}

	o.logger.Info("booked job",
		"job_id", job.ID,
		"customer_id", resolution.Customer.ID,
		"location_id", resolution.Location.ID,
		"date", date.Format("2006-01-02"),
		"window", window.Name,
		"new_customer", resolution.CreatedCustomer)

	return &Result{
		Status:        StatusBooked,
		JobID:         job.ID,
		JobNumber:     job.JobNumber,
		AppointmentID: job.FirstAppointmentID,
		CustomerID:    resolution.Customer.ID,
		LocationID:    resolution.Location.ID,
		Day:           schedule.DayLabel(date, nowLocal),
		Date:          date.Format("2006-01-02"),
		Window:        window.Name,
	}
}

// addDispatchFee puts the standard service-call line on the job's invoice.
// Best effort: the booking already succeeded, so failures only log.
func (o *Orchestrator) addDispatchFee(ctx context.Context, jobID int64) {
	invoices, err := o.platform.InvoicesForJob(ctx, jobID)
	if err != nil {
		o.logger.Warn("dispatch fee: invoice lookup failed", "job_id", jobID, "error", err)
		return
	}
	if len(invoices) == 0 {
		o.logger.Warn("dispatch fee: job has no invoice yet", "job_id", jobID)
		return
	}
	item := servicetitan.InvoiceItem{SkuID: o.cfg.DispatchFeeSKU, Quantity: "1"}
	if err := o.platform.AddInvoiceItem(ctx, invoices[0].ID, item); err != nil {
		o.logger.Warn("dispatch fee: add item failed", "invoice_id", invoices[0].ID, "error", err)
	}
}

func (o *Orchestrator) failed(stage string, err error) *Result {
	o.logger.Error("booking failed", "stage", stage, "error", err)
	o.metrics.RecordPlatformError(stage)
	return &Result{Status: StatusFailed, Reason: stage + ": " + err.Error()}
}

// release drops the idempotency claim after a failed attempt so a redelivery
// can retry.
func (o *Orchestrator) release(callID string) {
	// Best effort with its own context: the request context may already be
	// cancelled when we get here.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o.deduper.Release(ctx, callID)
}

func (o *Orchestrator) dedupeWindow() time.Duration {
	if o.deduper != nil {
		return o.deduper.Window()
	}
	return 5 * time.Minute
}
