// Package calls classifies finished phone calls and extracts structured
// booking fields from their transcripts.
package calls

import "strings"

// Summary carries the post-call fields the classifier inspects.
type Summary struct {
	SummaryText string
	Transcript  string
	DurationMS  int64

	// Structured fields the voice agent may have collected mid-call.
	BookingConfirmed bool
	HasAddress       bool
	HasSchedule      bool
	Issue            string
}

// minLeadDuration is the call length past which a call with no other signal
// still counts as a lead.
const minLeadDuration = 45_000

// minIssueLength is how much issue text counts as a substantive description.
const minIssueLength = 15

var nonLeadPhrases = []string{
	"wrong number",
	"misdial",
	"misdialed",
	"not interested",
	"spam call",
	"solicitor",
	"telemarketer",
}

var serviceKeywords = []string{
	"leak", "faucet", "toilet", "drain", "sewer", "clog", "pipe",
	"water heater", "sump pump", "garbage disposal", "plumb",
	"backup", "no hot water", "burst",
}

// IsLead decides whether a call represents genuine service interest. Rules
// apply in priority order; later defaults only run when no earlier rule
// fires.
func IsLead(s Summary) bool {
	text := strings.ToLower(s.SummaryText + " " + s.Transcript)

	for _, phrase := range nonLeadPhrases {
		if strings.Contains(text, phrase) {
			return false
		}
	}

	if s.BookingConfirmed || s.HasAddress || s.HasSchedule {
		return true
	}
	if len(strings.TrimSpace(s.Issue)) >= minIssueLength {
		return true
	}
	for _, kw := range serviceKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	// Very short calls with nothing to go on are hangups and misdials.
	if s.DurationMS < minLeadDuration && strings.TrimSpace(s.Issue) == "" {
		return false
	}
	return s.DurationMS >= minLeadDuration
}
