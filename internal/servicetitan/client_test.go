package servicetitan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream stands in for both the auth server and the API.
type fakeUpstream struct {
	mu        sync.Mutex
	authCalls int
	expiresIn int
	handlers  map[string]http.HandlerFunc
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		expiresIn: 900,
		handlers:  map[string]http.HandlerFunc{},
	}
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/connect/token" {
		f.mu.Lock()
		f.authCalls++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   f.expiresIn,
			"token_type":   "Bearer",
		})
		return
	}
	if h, ok := f.handlers[r.URL.Path]; ok {
		h(w, r)
		return
	}
	http.NotFound(w, r)
}

func (f *fakeUpstream) AuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

func newTestClient(t *testing.T, upstream *fakeUpstream) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:      srv.URL,
		AuthURL:      srv.URL + "/connect/token",
		ClientID:     "cid",
		ClientSecret: "secret",
		TenantID:     "12345",
		AppKey:       "appkey",
	}, nil)
	require.NoError(t, err)
	return client, srv
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing base URL", Config{ClientID: "a", ClientSecret: "b", TenantID: "c", AppKey: "d"}},
		{"missing client ID", Config{BaseURL: "http://x", ClientSecret: "b", TenantID: "c", AppKey: "d"}},
		{"missing client secret", Config{BaseURL: "http://x", ClientID: "a", TenantID: "c", AppKey: "d"}},
		{"missing tenant", Config{BaseURL: "http://x", ClientID: "a", ClientSecret: "b", AppKey: "d"}},
		{"missing app key", Config{BaseURL: "http://x", ClientID: "a", ClientSecret: "b", TenantID: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestSearchCustomers_SendsHeadersAndQuery(t *testing.T) {
	upstream := newFakeUpstream()
	var gotReq *http.Request
	upstream.handlers["/crm/v2/tenant/12345/customers"] = func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		json.NewEncoder(w).Encode(Page[Customer]{
			Data: []Customer{{ID: 7, Name: "Pat Doe", Type: "Residential", Active: true}},
		})
	}

	client, _ := newTestClient(t, upstream)

	customers, err := client.SearchCustomers(context.Background(), "6145551234")
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, int64(7), customers[0].ID)

	require.NotNil(t, gotReq)
	assert.Equal(t, "Bearer test-token", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "appkey", gotReq.Header.Get("ST-App-Key"))
	assert.Equal(t, "6145551234", gotReq.URL.Query().Get("phone"))
	assert.Equal(t, "true", gotReq.URL.Query().Get("active"))
}

func TestTokenReuse_AcrossRequests(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.handlers["/crm/v2/tenant/12345/customers"] = func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Page[Customer]{})
	}

	client, _ := newTestClient(t, upstream)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.SearchCustomers(ctx, "6145551234")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, upstream.AuthCalls(), "token should be cached across requests")
}

func TestTokenRefresh_NearExpiry(t *testing.T) {
	upstream := newFakeUpstream()
	// Expires inside the 60s refresh buffer, so every request re-auths.
	upstream.expiresIn = 30
	upstream.handlers["/crm/v2/tenant/12345/customers"] = func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Page[Customer]{})
	}

	client, _ := newTestClient(t, upstream)

	ctx := context.Background()
	_, err := client.SearchCustomers(ctx, "6145551234")
	require.NoError(t, err)
	_, err = client.SearchCustomers(ctx, "6145551234")
	require.NoError(t, err)

	assert.Equal(t, 2, upstream.AuthCalls())
}

func TestCreateJob_PostsPayload(t *testing.T) {
	upstream := newFakeUpstream()
	var gotBody NewJob
	upstream.handlers["/jpm/v2/tenant/12345/jobs"] = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Job{ID: 99, JobNumber: "99", CustomerID: gotBody.CustomerID})
	}

	client, _ := newTestClient(t, upstream)

	start := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	job, err := client.CreateJob(context.Background(), NewJob{
		CustomerID:     7,
		LocationID:     8,
		BusinessUnitID: 40464378,
		JobTypeID:      40464992,
		Priority:       "Normal",
		CampaignID:     313,
		Summary:        "Leaking water heater",
		Appointments: []NewAppointment{{
			Start:              start,
			End:                start.Add(3 * time.Hour),
			ArrivalWindowStart: start,
			ArrivalWindowEnd:   start.Add(3 * time.Hour),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), job.ID)
	assert.Equal(t, int64(313), gotBody.CampaignID)
	assert.Len(t, gotBody.Appointments, 1)
}

func TestGetCapacity_Post(t *testing.T) {
	upstream := newFakeUpstream()
	var gotBody CapacityRequest
	upstream.handlers["/dispatch/v2/tenant/12345/capacity"] = func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(CapacityResponse{
			Availabilities: []CapacitySlot{{IsAvailable: true, OpenCapacity: 2}},
		})
	}

	client, _ := newTestClient(t, upstream)

	resp, err := client.GetCapacity(context.Background(), CapacityRequest{
		StartsOnOrAfter: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
		EndsOnOrBefore:  time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC),
		BusinessUnitIDs: []int64{40464378},
		JobTypeID:       40464992,
	})
	require.NoError(t, err)
	require.Len(t, resp.Availabilities, 1)
	assert.True(t, resp.Availabilities[0].IsAvailable)
	assert.Equal(t, []int64{40464378}, gotBody.BusinessUnitIDs)
}

func TestAPIError_TruncatesBody(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.handlers["/crm/v2/tenant/12345/customers"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(strings.Repeat("x", 1000)))
	}

	client, _ := newTestClient(t, upstream)

	_, err := client.SearchCustomers(context.Background(), "6145551234")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Len(t, apiErr.Body, maxErrorBody)
}

func TestEnsureToken_Singleflight(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.handlers["/crm/v2/tenant/12345/customers"] = func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Page[Customer]{})
	}

	client, _ := newTestClient(t, upstream)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.SearchCustomers(context.Background(), "6145551234")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, upstream.AuthCalls(), "concurrent callers should share one token fetch")
}
