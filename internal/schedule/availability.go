package schedule

import (
	"context"
	"time"

	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// CapacitySource is the slice of the platform API the resolver needs.
type CapacitySource interface {
	GetCapacity(ctx context.Context, req servicetitan.CapacityRequest) (*servicetitan.CapacityResponse, error)
}

// DayOffer is one offerable date with its open arrival windows, in
// chronological order.
type DayOffer struct {
	Day     string   `json:"day"`  // "today", "tomorrow", or weekday name
	Date    string   `json:"date"` // local civil date, YYYY-MM-DD
	Windows []string `json:"windows"`
}

// Availability is the resolver output. Degraded means capacity data was
// unreachable and the offers are an optimistic guess rather than live data.
type Availability struct {
	Days     []DayOffer `json:"days"`
	Degraded bool       `json:"degraded,omitempty"`
}

// Resolver reduces the platform's capacity feed to a short ordered list of
// offerable day+window slots.
type Resolver struct {
	source        CapacitySource
	businessUnits []int64
	jobTypeID     int64
	horizon       int
	logger        *logging.Logger
	now           func() time.Time
}

// ResolverConfig configures an availability Resolver.
type ResolverConfig struct {
	BusinessUnits []int64
	JobTypeID     int64
	Horizon       int // business days to offer, default 5
	Now           func() time.Time
}

// NewResolver creates an availability resolver over the given capacity source.
func NewResolver(source CapacitySource, cfg ResolverConfig, logger *logging.Logger) *Resolver {
	horizon := cfg.Horizon
	if horizon <= 0 {
		horizon = 5
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		source:        source,
		businessUnits: cfg.BusinessUnits,
		jobTypeID:     cfg.JobTypeID,
		horizon:       horizon,
		logger:        logger,
		now:           nowFn,
	}
}

// Resolve queries capacity for the next business days in one request and
// reduces it to offerable windows. Capacity outages fail soft: the caller
// gets every window marked available with Degraded set, so the live phone
// conversation never stalls on an upstream failure.
func (r *Resolver) Resolve(ctx context.Context) (*Availability, error) {
	nowLocal := EasternNow(r.now())
	days := BusinessDays(nowLocal, r.horizon)

	first, last := days[0], days[len(days)-1]
	req := servicetitan.CapacityRequest{
		StartsOnOrAfter:        LocalHourToUTC(first.Year(), first.Month(), first.Day(), Morning.StartHour),
		EndsOnOrBefore:         LocalHourToUTC(last.Year(), last.Month(), last.Day(), Afternoon.EndHour),
		BusinessUnitIDs:        r.businessUnits,
		JobTypeID:              r.jobTypeID,
		SkillBasedAvailability: false,
	}

	resp, err := r.source.GetCapacity(ctx, req)
	if err != nil {
		r.logger.Warn("capacity lookup failed, offering degraded availability", "error", err)
		return r.degraded(days, nowLocal), nil
	}

	// date (YYYY-MM-DD local) -> open window names
	open := make(map[string]map[string]bool)
	for _, slot := range resp.Availabilities {
		if !slot.IsAvailable && slot.OpenCapacity <= 0 {
			continue
		}
		start := slot.StartUtc
		if start.IsZero() {
			start = slot.Start
		}
		local := EasternNow(start)
		w, ok := ClassifyHour(local.Hour())
		if !ok {
			continue
		}
		date := local.Format("2006-01-02")
		if open[date] == nil {
			open[date] = make(map[string]bool)
		}
		open[date][w.Name] = true
	}

	out := &Availability{}
	todayDate := nowLocal.Format("2006-01-02")
	for _, day := range days {
		date := day.Format("2006-01-02")
		var windows []string
		for _, w := range Windows {
			if !open[date][w.Name] {
				continue
			}
			// Same-day windows that already started are not offerable.
			if date == todayDate && nowLocal.Hour() >= w.StartHour {
				continue
			}
			windows = append(windows, w.Name)
		}
		if len(windows) == 0 {
			continue
		}
		out.Days = append(out.Days, DayOffer{
			Day:     DayLabel(day, nowLocal),
			Date:    date,
			Windows: windows,
		})
	}
	return out, nil
}

// degraded builds the optimistic fallback offer list used when capacity data
// is unreachable.
func (r *Resolver) degraded(days []time.Time, nowLocal time.Time) *Availability {
	out := &Availability{Degraded: true}
	todayDate := nowLocal.Format("2006-01-02")
	for _, day := range days {
		date := day.Format("2006-01-02")
		var windows []string
		for _, w := range Windows {
			if date == todayDate && nowLocal.Hour() >= w.StartHour {
				continue
			}
			windows = append(windows, w.Name)
		}
		if len(windows) == 0 {
			continue
		}
		out.Days = append(out.Days, DayOffer{
			Day:     DayLabel(day, nowLocal),
			Date:    date,
			Windows: windows,
		})
	}
	return out
}
