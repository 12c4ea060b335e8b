package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookedReport = CallReport{
	CustomerName: "Sam Rivera",
	Phone:        "9378843414",
	Address:      "1 Main St, Dayton 45402",
	Issue:        "leaky faucet",
	DurationMS:   95_000,
	IsLead:       true,
	Booked:       true,
	JobNumber:    "900",
	Day:          "wednesday",
	Window:       "morning",
	Transcript:   "caller: my faucet is leaking",
}

func TestSend_PostsChatMessage(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	s := New(srv.URL, 0, nil)
	require.NoError(t, s.Send(context.Background(), bookedReport))

	text := got["text"]
	assert.Contains(t, text, "Booked")
	assert.Contains(t, text, "900")
	assert.Contains(t, text, "Sam Rivera")
	assert.Contains(t, text, "9378843414")
	assert.Contains(t, text, "leaky faucet")
}

func TestSend_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(srv.URL, 0, nil)
	assert.Error(t, s.Send(context.Background(), bookedReport))
}

func TestNotify_NilAndDisabledAreSafe(t *testing.T) {
	var s *Service
	s.Notify(bookedReport)

	New("", 0, nil).Notify(bookedReport)
}

func TestFormatReport_Framing(t *testing.T) {
	lead := bookedReport
	lead.Booked = false
	assert.Contains(t, FormatReport(lead), "Lead")

	nonLead := lead
	nonLead.IsLead = false
	assert.Contains(t, FormatReport(nonLead), "Call from")

	long := bookedReport
	long.Transcript = strings.Repeat("caller said things ", 100)
	assert.LessOrEqual(t, len(FormatReport(long)), 1200)
}
