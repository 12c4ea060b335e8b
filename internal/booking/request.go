// Package booking holds the orchestrator that turns caller-supplied fields
// into a scheduled job on the field-service platform.
package booking

import "strings"

// Request is the canonical booking input. Field-name tolerance for the
// several shapes the voice agent sends lives in Wire; core logic only ever
// sees this struct.
type Request struct {
	CallID string // upstream call id, used as the idempotency key when present

	Name   string
	Phone  string // raw, normalized by the orchestrator
	Street string
	Unit   string
	City   string
	State  string
	Zip    string

	Issue  string
	Day    string // "today", "tomorrow", weekday name, or empty
	Window string // "morning", "midday", "afternoon"
}

// Wire is the tolerant JSON shape accepted at the handler boundary. The
// voice agent has sent the same concept under different field names across
// prompt revisions, so each canonical field folds a few aliases.
type Wire struct {
	CallID string `json:"call_id"`

	Name         string `json:"name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CustomerName string `json:"customer_name"`

	Phone       string `json:"phone"`
	PhoneNumber string `json:"phone_number"`
	FromNumber  string `json:"from_number"`

	Street  string `json:"street"`
	Address string `json:"address"`
	Unit    string `json:"unit"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	ZipCode string `json:"zip_code"`

	Issue       string `json:"issue"`
	Problem     string `json:"problem"`
	Description string `json:"description"`

	Day        string `json:"day"`
	Date       string `json:"date"`
	TimeWindow string `json:"time_window"`
	Window     string `json:"window"`
}

// Canonical folds the wire aliases down to one Request.
func (w Wire) Canonical() Request {
	name := firstNonEmpty(w.Name, w.CustomerName, strings.TrimSpace(w.FirstName+" "+w.LastName))
	return Request{
		CallID: strings.TrimSpace(w.CallID),
		Name:   strings.TrimSpace(name),
		Phone:  firstNonEmpty(w.Phone, w.PhoneNumber, w.FromNumber),
		Street: firstNonEmpty(w.Street, w.Address),
		Unit:   strings.TrimSpace(w.Unit),
		City:   strings.TrimSpace(w.City),
		State:  strings.TrimSpace(w.State),
		Zip:    firstNonEmpty(w.Zip, w.ZipCode),
		Issue:  firstNonEmpty(w.Issue, w.Problem, w.Description),
		Day:    firstNonEmpty(w.Day, w.Date),
		Window: firstNonEmpty(w.TimeWindow, w.Window),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// MissingRequired returns the spoken names of required fields absent from
// the request, ordered by how the agent should ask for them.
func (r Request) MissingRequired() []string {
	var missing []string
	check := func(value, spoken string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, spoken)
		}
	}
	check(r.Name, "name")
	check(r.Phone, "phone number")
	check(r.Street, "street address")
	check(r.City, "city")
	check(r.Zip, "zip code")
	check(r.Issue, "issue")
	check(r.Window, "time window")
	return missing
}
