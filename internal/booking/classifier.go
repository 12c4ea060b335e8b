package booking

import "regexp"

var drainRe = regexp.MustCompile(`(?i)drain|sewer|clog|backup|snake`)

// Routing pairs the business unit and job type a job is dispatched under.
type Routing struct {
	BusinessUnitID int64
	JobTypeID      int64
}

// Classifier routes an issue description to the drain or general plumbing
// line of business.
type Classifier struct {
	Plumbing Routing
	Drain    Routing
}

// IsDrainIssue reports whether the issue text reads as drain/sewer work.
func IsDrainIssue(issue string) bool {
	return drainRe.MatchString(issue)
}

// Classify picks the routing for an issue description.
func (c Classifier) Classify(issue string) Routing {
	if IsDrainIssue(issue) {
		return c.Drain
	}
	return c.Plumbing
}
