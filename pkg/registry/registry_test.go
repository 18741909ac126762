package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func studyJSON(nctID, title, elig string) map[string]any {
	return map[string]any{
		"protocolSection": map[string]any{
			"identificationModule": map[string]any{
				"nctId":      nctID,
				"briefTitle": title,
			},
			"conditionsModule": map[string]any{
				"conditions": []string{"Diabetes", "Heart Failure"},
			},
			"eligibilityModule": map[string]any{
				"eligibilityCriteria": elig,
			},
			"statusModule": map[string]any{
				"overallStatus":  "RECRUITING",
				"enrollmentInfo": map[string]any{"count": 120},
				"startDateStruct": map[string]any{
					"date": "2024-01-01",
				},
			},
			"designModule": map[string]any{
				"studyType": "INTERVENTIONAL",
				"phases":    []string{"PHASE2", "PHASE3"},
			},
			"contactsLocationsModule": map[string]any{
				"locations": []map[string]any{
					{"country": "United States"},
					{"country": "Germany"},
					{"country": "United States"},
					{"country": ""},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithRetryDelay(time.Millisecond),
	)
}

func TestFetchTrialsFlattensStudies(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "RECRUITING", r.URL.Query().Get("filter.overallStatus"))
		json.NewEncoder(w).Encode(map[string]any{
			"studies": []map[string]any{
				studyJSON("NCT001", "Heart Failure Study", "  Ages 18 to 65  "),
			},
		})
	}))

	records, err := client.FetchTrials(context.Background(), Preset("quick"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "NCT001", r.NCTID)
	assert.Equal(t, "Heart Failure Study", r.Title)
	assert.Equal(t, "Diabetes; Heart Failure", r.Condition)
	assert.Equal(t, "Ages 18 to 65", r.EligibilityCriteria)
	assert.Equal(t, "INTERVENTIONAL", r.StudyType)
	assert.Equal(t, "PHASE2", r.Phase)
	assert.Equal(t, 120, r.EnrollmentCount)
	assert.Equal(t, "Germany; United States", r.LocationCountries)
	assert.Equal(t, "RECRUITING", r.Status)
	assert.Equal(t, "2024-01-01", r.StartDate)
}

func TestFetchTrialsPagination(t *testing.T) {
	var pages atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := pages.Add(1)
		resp := map[string]any{
			"studies": []map[string]any{
				studyJSON("NCT00"+r.URL.Query().Get("pageToken")+"X", "Study", "older than 50"),
			},
		}
		if page == 1 {
			assert.Empty(t, r.URL.Query().Get("pageToken"))
			resp["nextPageToken"] = "t2"
		}
		json.NewEncoder(w).Encode(resp)
	}))

	records, err := client.FetchTrials(context.Background(), Query{ConditionQuery: "diabetes", MaxPages: 5})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(2), pages.Load())
}

func TestFetchTrialsRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"studies": []map[string]any{
				studyJSON("NCT001", "Study", "males only"),
			},
		})
	}))

	records, err := client.FetchTrials(context.Background(), Preset("quick"))
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchTrialsPersistentFailurePropagates(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	records, err := client.FetchTrials(context.Background(), Preset("quick"))
	assert.ErrorIs(t, err, ErrUpstreamFetch)
	assert.Nil(t, records)
	// First attempt plus two retries, nothing more.
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchTrialsContextCancellation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchTrials(ctx, Preset("quick"))
	require.Error(t, err)
}

func TestPreset(t *testing.T) {
	assert.Equal(t, 3, Preset("quick").MaxPages)
	assert.Equal(t, 8, Preset("medium").MaxPages)
	assert.Equal(t, 20, Preset("full").MaxPages)
	// Unknown names fall back to quick.
	assert.Equal(t, Preset("quick"), Preset("nope"))
}
