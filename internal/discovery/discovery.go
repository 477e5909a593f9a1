package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hardhatlabs/subscout/pkg/config"
)

// Candidate is one discovered subcontractor website
type Candidate struct {
	URL         string `json:"url"`
	DisplayURL  string `json:"display_url,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// searchResponse mirrors the search API's JSON payload
type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	Link          string `json:"link"`
	DisplayedLink string `json:"displayed_link"`
	Title         string `json:"title"`
	Snippet       string `json:"snippet"`
}

// Service discovers subcontractor websites through web searches
type Service struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	maxResults int
}

// NewService creates a discovery service from configuration
func NewService(cfg *config.Config) *Service {
	maxResults := cfg.ResearchMaxResults
	if maxResults <= 0 {
		maxResults = 20
	}
	return &Service{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		apiKey:     cfg.SearchAPIKey,
		endpoint:   cfg.SearchEndpoint,
		maxResults: maxResults,
	}
}

// FindSubcontractors searches for subcontractor websites matching the
// trade, location and keywords. Duplicate URLs are dropped and the result
// is capped at the configured maximum.
func (s *Service) FindSubcontractors(ctx context.Context, trade, city, state string, keywords []string) ([]Candidate, error) {
	query := BuildQuery(trade, city, state, keywords)
	if query == "" {
		return nil, fmt.Errorf("empty search query: trade, city or state required")
	}

	results, err := s.search(ctx, query, city, state)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, s.maxResults)
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Link == "" || !strings.HasPrefix(r.Link, "http") || seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		candidates = append(candidates, Candidate{
			URL:         r.Link,
			DisplayURL:  r.DisplayedLink,
			Title:       r.Title,
			Description: r.Snippet,
		})
		if len(candidates) >= s.maxResults {
			break
		}
	}

	return candidates, nil
}

func (s *Service) search(ctx context.Context, query, city, state string) ([]organicResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", s.maxResults))
	params.Set("hl", "en")
	params.Set("gl", "us")
	if city != "" && state != "" {
		params.Set("location", fmt.Sprintf("%s, %s, United States", city, state))
	}
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return parsed.OrganicResults, nil
}

// BuildQuery assembles a precision search query for licensed contractors.
// License wording stays generic so the query works outside Texas, but a
// TDLR hint is appended for TX searches.
func BuildQuery(trade, city, state string, keywords []string) string {
	var components []string
	if trade != "" {
		components = append(components, trade+" contractor")
	}
	if city != "" {
		components = append(components, city)
	}
	if state != "" {
		components = append(components, state)
	}

	licenseTerms := []string{"licensed", "certified", "registered", "insured", "bonded"}
	projectTerms := keywords
	if len(projectTerms) == 0 {
		projectTerms = []string{"commercial"}
	}

	var parts []string
	if len(components) > 0 {
		parts = append(parts, strings.Join(components, " "))
	}
	parts = append(parts, "("+strings.Join(licenseTerms, " OR ")+")")
	parts = append(parts, "("+strings.Join(projectTerms, " OR ")+")")

	query := strings.Join(parts, " ")
	if len(components) == 0 {
		return ""
	}

	if strings.EqualFold(state, "TX") {
		query += " (tdlr OR 'texas department of licensing')"
	}

	return strings.TrimSpace(query)
}
