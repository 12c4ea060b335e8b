package booking

// Status is the terminal state of one booking attempt.
type Status string

const (
	StatusBooked        Status = "booked"
	StatusMissingFields Status = "missing_fields"
	StatusInvalidPhone  Status = "invalid_phone"
	StatusDuplicate     Status = "duplicate"
	StatusFailed        Status = "failed"
)

// Result is the structured outcome of a booking attempt. Reason carries the
// internal failure detail for logs; it is never spoken to the caller.
type Result struct {
	Status        Status   `json:"status"`
	JobID         int64    `json:"job_id,omitempty"`
	JobNumber     string   `json:"job_number,omitempty"`
	AppointmentID int64    `json:"appointment_id,omitempty"`
	CustomerID    int64    `json:"customer_id,omitempty"`
	LocationID    int64    `json:"location_id,omitempty"`
	Day           string   `json:"day,omitempty"`
	Date          string   `json:"date,omitempty"`
	Window        string   `json:"window,omitempty"`
	Missing       []string `json:"missing_fields,omitempty"`
	Reason        string   `json:"-"`
}

// Booked reports whether the attempt created a job.
func (r *Result) Booked() bool {
	return r.Status == StatusBooked
}
