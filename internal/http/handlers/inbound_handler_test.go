package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumbline-ai/sarah-booking/internal/schedule"
	"github.com/plumbline-ai/sarah-booking/internal/servicetitan"
)

func postInbound(t *testing.T, h *InboundHandler, body string) map[string]string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/inbound-webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleInbound(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var reply inboundReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply.Inbound.DynamicVariables
}

func TestInbound_KnownCustomerWithAvailability(t *testing.T) {
	lookup := &fakeLookup{customer: &servicetitan.Customer{
		ID:      7,
		Name:    "Sam Rivera",
		Address: servicetitan.Address{Street: "1 Main St", City: "Dayton", Zip: "45402"},
	}}
	avail := &fakeAvailability{avail: &schedule.Availability{Days: []schedule.DayOffer{
		{Day: "tomorrow", Date: "2025-06-03", Windows: []string{"morning"}},
	}}}
	h := NewInboundHandler(lookup, avail, nil, nil)

	vars := postInbound(t, h, `{"event":"call_inbound","call_inbound":{"from_number":"+19378843414"}}`)

	assert.Equal(t, "true", vars["known_customer"])
	assert.Equal(t, "Sam Rivera", vars["customer_name"])
	assert.Equal(t, "1 Main St", vars["customer_street"])
	assert.Equal(t, "true", vars["has_availability"])
	assert.Contains(t, vars["available_slots"], "tomorrow morning")
	assert.NotEmpty(t, vars["today_date"])
	assert.Equal(t, "9378843414", lookup.gotPhone)
}

func TestInbound_UnknownCallerStillGetsAvailability(t *testing.T) {
	avail := &fakeAvailability{avail: &schedule.Availability{Days: []schedule.DayOffer{
		{Day: "today", Date: "2025-06-02", Windows: []string{"afternoon"}},
	}}}
	h := NewInboundHandler(&fakeLookup{}, avail, nil, nil)

	vars := postInbound(t, h, `{"call_inbound":{"from_number":"+19378843414"}}`)

	assert.Equal(t, "false", vars["known_customer"])
	assert.Equal(t, "true", vars["has_availability"])
}

func TestInbound_LookupFailureDegradesToAnonymous(t *testing.T) {
	lookup := &fakeLookup{err: assert.AnError}
	avail := &fakeAvailability{err: assert.AnError}
	h := NewInboundHandler(lookup, avail, nil, nil)

	vars := postInbound(t, h, `{"call_inbound":{"from_number":"+19378843414"}}`)

	assert.Equal(t, "false", vars["known_customer"])
	assert.Equal(t, "false", vars["has_availability"])
	assert.NotContains(t, vars, "available_slots")
}

func TestInbound_InvalidCallerIDSkipsLookup(t *testing.T) {
	avail := &fakeAvailability{avail: &schedule.Availability{}}
	h := NewInboundHandler(&fakeLookup{}, avail, nil, nil)

	vars := postInbound(t, h, `{"call_inbound":{"from_number":"anonymous"}}`)

	assert.Equal(t, "false", vars["known_customer"])
}

func TestInbound_MalformedBodyStillReplies(t *testing.T) {
	h := NewInboundHandler(&fakeLookup{}, &fakeAvailability{avail: &schedule.Availability{}}, nil, nil)

	vars := postInbound(t, h, `{broken`)

	assert.Equal(t, "false", vars["known_customer"])
	assert.NotEmpty(t, vars["today_date"])
}
