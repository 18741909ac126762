// Package registry fetches trial records from the clinicaltrials.gov v2
// API and flattens them into tabular rows.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/TambeNeel/clinical-trial-matchmaker/pkg/types"
)

// DefaultBaseURL is the clinicaltrials.gov v2 studies endpoint.
const DefaultBaseURL = "https://clinicaltrials.gov/api/v2/studies"

const (
	defaultTimeout    = 60 * time.Second
	defaultRetryDelay = 1500 * time.Millisecond

	// maxRetries is the number of additional attempts after the first
	// failure. Backoff is linear: retryDelay * attempt number.
	maxRetries = 2
)

// ErrUpstreamFetch wraps transient registry failures that survived the retry
// budget. The corpus state is left unchanged when it is returned.
var ErrUpstreamFetch = errors.New("registry fetch failed")

// Query describes one corpus fetch.
type Query struct {
	ConditionQuery string
	Statuses       []string
	PageSize       int
	MaxPages       int
}

// Presets matching the original service's fetch profiles.
var presets = map[string]Query{
	"quick": {
		ConditionQuery: `("type 2 diabetes" OR diabetes OR "heart failure" OR cancer)`,
		Statuses:       []string{"RECRUITING"},
		PageSize:       200,
		MaxPages:       3,
	},
	"medium": {
		ConditionQuery: `(diabetes OR "heart failure" OR cancer OR stroke OR asthma)`,
		Statuses:       []string{"RECRUITING"},
		PageSize:       200,
		MaxPages:       8,
	},
	"full": {
		ConditionQuery: `(diabetes OR "heart failure" OR cancer OR stroke OR asthma OR COPD OR "chronic kidney disease")`,
		Statuses:       []string{"RECRUITING"},
		PageSize:       200,
		MaxPages:       20,
	},
}

// Preset returns a named fetch profile, falling back to "quick" for unknown
// names.
func Preset(name string) Query {
	if q, ok := presets[name]; ok {
		return q
	}
	return presets["quick"]
}

// Client talks to the trial registry. All requests run through a circuit
// breaker so a flapping upstream fails fast instead of burning the retry
// budget on every call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retryDelay time.Duration
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at a different studies endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithRetryDelay sets the linear backoff base delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.retryDelay = d
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a registry client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		retryDelay: defaultRetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "registry",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 6 && counts.ConsecutiveFailures >= 6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// FetchTrials pages through the registry and returns the flattened rows.
// Each page request is retried up to two additional times with linear
// backoff; a persistent failure is returned with no partial result.
func (c *Client) FetchTrials(ctx context.Context, q Query) ([]types.TrialRecord, error) {
	if q.PageSize <= 0 {
		q.PageSize = 200
	}
	if q.MaxPages <= 0 {
		q.MaxPages = 3
	}

	var records []types.TrialRecord
	token := ""
	for page := 0; page < q.MaxPages; page++ {
		result, err := c.fetchPage(ctx, q, token)
		if err != nil {
			return nil, err
		}
		for _, s := range result.Studies {
			records = append(records, flatten(s))
		}
		token = result.NextPageToken
		if token == "" {
			break
		}
	}

	c.logger.Info("fetched trials", "rows", len(records))
	return records, nil
}

// fetchPage requests a single result page with the retry policy applied.
func (c *Client) fetchPage(ctx context.Context, q Query, pageToken string) (*studiesPage, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.logger.Debug("retrying registry fetch", "attempt", attempt+1, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		page, err := c.doRequest(ctx, q, pageToken)
		if err == nil {
			return page, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w after %d attempts: %s", ErrUpstreamFetch, maxRetries+1, lastErr)
}

// doRequest performs one HTTP round trip through the circuit breaker.
func (c *Client) doRequest(ctx context.Context, q Query, pageToken string) (*studiesPage, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = c.queryParams(q, pageToken).Encode()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		var page studiesPage
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &page, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*studiesPage), nil
}

func (c *Client) queryParams(q Query, pageToken string) url.Values {
	params := url.Values{}
	params.Set("query.cond", q.ConditionQuery)
	if len(q.Statuses) > 0 {
		params.Set("filter.overallStatus", strings.Join(q.Statuses, ","))
	}
	params.Set("pageSize", strconv.Itoa(q.PageSize))
	params.Set("format", "json")
	params.Set("countTotal", "true")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}
	return params
}

// Wire types for the nested v2 response.

type studiesPage struct {
	Studies       []study `json:"studies"`
	NextPageToken string  `json:"nextPageToken"`
}

type study struct {
	ProtocolSection struct {
		IdentificationModule struct {
			NCTID         string `json:"nctId"`
			BriefTitle    string `json:"briefTitle"`
			OfficialTitle string `json:"officialTitle"`
		} `json:"identificationModule"`
		ConditionsModule struct {
			Conditions []string `json:"conditions"`
		} `json:"conditionsModule"`
		EligibilityModule struct {
			EligibilityCriteria string `json:"eligibilityCriteria"`
		} `json:"eligibilityModule"`
		StatusModule struct {
			OverallStatus  string `json:"overallStatus"`
			EnrollmentInfo struct {
				Count int `json:"count"`
			} `json:"enrollmentInfo"`
			StartDateStruct struct {
				Date string `json:"date"`
			} `json:"startDateStruct"`
			PrimaryCompletionDateStruct struct {
				Date string `json:"date"`
			} `json:"primaryCompletionDateStruct"`
		} `json:"statusModule"`
		DesignModule struct {
			StudyType string   `json:"studyType"`
			Phases    []string `json:"phases"`
		} `json:"designModule"`
		ContactsLocationsModule struct {
			Locations []struct {
				Country string `json:"country"`
			} `json:"locations"`
		} `json:"contactsLocationsModule"`
	} `json:"protocolSection"`
}

// flatten collapses one nested study into a tabular TrialRecord.
func flatten(s study) types.TrialRecord {
	p := s.ProtocolSection

	title := p.IdentificationModule.BriefTitle
	if title == "" {
		title = p.IdentificationModule.OfficialTitle
	}

	phase := ""
	if len(p.DesignModule.Phases) > 0 {
		phase = p.DesignModule.Phases[0]
	}

	countrySet := make(map[string]struct{})
	for _, loc := range p.ContactsLocationsModule.Locations {
		if loc.Country != "" {
			countrySet[loc.Country] = struct{}{}
		}
	}
	countries := make([]string, 0, len(countrySet))
	for country := range countrySet {
		countries = append(countries, country)
	}
	sort.Strings(countries)

	return types.TrialRecord{
		NCTID:               p.IdentificationModule.NCTID,
		Title:               title,
		Condition:           strings.Join(p.ConditionsModule.Conditions, "; "),
		EligibilityCriteria: strings.TrimSpace(p.EligibilityModule.EligibilityCriteria),
		StudyType:           p.DesignModule.StudyType,
		Phase:               phase,
		EnrollmentCount:     p.StatusModule.EnrollmentInfo.Count,
		LocationCountries:   strings.Join(countries, "; "),
		Status:              p.StatusModule.OverallStatus,
		StartDate:           p.StatusModule.StartDateStruct.Date,
		CompletionDate:      p.StatusModule.PrimaryCompletionDateStruct.Date,
	}
}
