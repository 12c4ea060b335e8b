package servicetitan

import "time"

// Page is the envelope ServiceTitan wraps around every list endpoint.
type Page[T any] struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
	Data     []T  `json:"data"`
}

// Address is a postal address on a customer or location.
type Address struct {
	Street  string `json:"street"`
	Unit    string `json:"unit,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Contact is a phone or email entry on a customer record.
type Contact struct {
	ID    int64  `json:"id,omitempty"`
	Type  string `json:"type"` // "MobilePhone", "Phone", "Email"
	Value string `json:"value"`
	Memo  string `json:"memo,omitempty"`
}

// Customer is a CRM customer record. Locations is only populated on the
// create response, which echoes the locations created inline.
type Customer struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Type      string     `json:"type"` // "Residential" or "Commercial"
	Address   Address    `json:"address"`
	Contacts  []Contact  `json:"contacts,omitempty"`
	Locations []Location `json:"locations,omitempty"`
	Active    bool       `json:"active"`
}

// NewCustomer is the payload for creating a customer together with its
// first location.
type NewCustomer struct {
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Address   Address       `json:"address"`
	Contacts  []Contact     `json:"contacts"`
	Locations []NewLocation `json:"locations"`
}

// Location is a service address tied to a customer.
type Location struct {
	ID         int64   `json:"id"`
	CustomerID int64   `json:"customerId"`
	Name       string  `json:"name"`
	Address    Address `json:"address"`
	Active     bool    `json:"active"`
}

// NewLocation is the payload for creating a location.
type NewLocation struct {
	CustomerID int64     `json:"customerId,omitempty"`
	Name       string    `json:"name"`
	Address    Address   `json:"address"`
	Contacts   []Contact `json:"contacts,omitempty"`
}

// Job is a JPM job record.
type Job struct {
	ID                 int64     `json:"id"`
	JobNumber          string    `json:"jobNumber"`
	CustomerID         int64     `json:"customerId"`
	LocationID         int64     `json:"locationId"`
	JobTypeID          int64     `json:"jobTypeId"`
	BusinessUnitID     int64     `json:"businessUnitId"`
	JobStatus          string    `json:"jobStatus"`
	Summary            string    `json:"summary"`
	FirstAppointmentID int64     `json:"firstAppointmentId"`
	CreatedOn          time.Time `json:"createdOn"`
}

// NewJob is the payload for creating a job with a single appointment.
type NewJob struct {
	CustomerID     int64            `json:"customerId"`
	LocationID     int64            `json:"locationId"`
	BusinessUnitID int64            `json:"businessUnitId"`
	JobTypeID      int64            `json:"jobTypeId"`
	Priority       string           `json:"priority"`
	CampaignID     int64            `json:"campaignId"`
	Summary        string           `json:"summary"`
	Appointments   []NewAppointment `json:"appointments"`
}

// NewAppointment is the arrival-window block sent inside a job creation.
type NewAppointment struct {
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	ArrivalWindowStart time.Time `json:"arrivalWindowStart"`
	ArrivalWindowEnd   time.Time `json:"arrivalWindowEnd"`
}

// JobType is a JPM job type.
type JobType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BusinessUnit is a settings business unit.
type BusinessUnit struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
	Official string `json:"officialName,omitempty"`
}

// Campaign is a marketing campaign.
type Campaign struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// CapacityRequest asks dispatch which arrival windows have technician
// availability.
type CapacityRequest struct {
	StartsOnOrAfter        time.Time `json:"startsOnOrAfter"`
	EndsOnOrBefore         time.Time `json:"endsOnOrBefore"`
	BusinessUnitIDs        []int64   `json:"businessUnitIds"`
	JobTypeID              int64     `json:"jobTypeId"`
	SkillBasedAvailability bool      `json:"skillBasedAvailability"`
}

// CapacitySlot is one arrival window in a capacity response.
type CapacitySlot struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	StartUtc      time.Time `json:"startUtc"`
	EndUtc        time.Time `json:"endUtc"`
	IsAvailable   bool      `json:"isAvailable"`
	OpenCapacity  float64   `json:"openAvailability"`
	TotalCapacity float64   `json:"totalAvailability"`
}

// CapacityResponse is the dispatch capacity payload.
type CapacityResponse struct {
	Availabilities []CapacitySlot `json:"availabilities"`
}

// Call is a telecom call record.
type Call struct {
	ID         int64     `json:"id"`
	FromNumber string    `json:"from"`
	ToNumber   string    `json:"to"`
	Duration   string    `json:"duration"`
	Direction  string    `json:"direction"`
	CreatedOn  time.Time `json:"createdOn"`
}

// Invoice is an accounting invoice.
type Invoice struct {
	ID      int64         `json:"id"`
	Number  string        `json:"number"`
	Total   string        `json:"total"`
	Balance string        `json:"balance"`
	Items   []InvoiceItem `json:"items"`
}

// InvoiceItem is a line item on an invoice.
type InvoiceItem struct {
	ID          int64  `json:"id,omitempty"`
	SkuID       int64  `json:"skuId"`
	SkuName     string `json:"skuName,omitempty"`
	Description string `json:"description,omitempty"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price,omitempty"`
}

// PricebookService is a pricebook service SKU.
type PricebookService struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	DisplayName string  `json:"displayName"`
	Price       float64 `json:"price"`
	Active      bool    `json:"active"`
}
