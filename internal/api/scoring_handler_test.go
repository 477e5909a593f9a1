package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/scoring"
	"github.com/hardhatlabs/subscout/internal/services"
)

func setupScoringRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	handler := NewScoringHandler(services.NewScoringService(nil))
	router.POST("/scoring/rank", handler.RankCandidates)
	router.GET("/scoring/config", handler.GetConfig)
	return router
}

func rankBody(t *testing.T, candidates []scoring.Candidate) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"candidates": candidates,
		"min_bond":   100000,
		"city":       "Austin",
		"state":      "TX",
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestRankCandidates(t *testing.T) {
	router := setupScoringRouter()

	expires := time.Now().AddDate(3, 0, 0)
	candidates := []scoring.Candidate{
		{
			ID:    uuid.New(),
			Name:  "Acme Electrical",
			City:  "Austin",
			State: "TX",
			License: scoring.License{
				Status:    scoring.LicenseActive,
				ExpiresAt: &expires,
			},
			BondAmount:      250_000,
			YearsInBusiness: 12,
		},
		{
			ID:         uuid.New(),
			Name:       "Unbonded Co",
			State:      "OK",
			BondAmount: 0,
		},
	}

	req := httptest.NewRequest("POST", "/scoring/rank", bytes.NewReader(rankBody(t, candidates)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var response struct {
		Count   int                      `json:"count"`
		Results []scoring.RankedCandidate `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Count != 2 {
		t.Fatalf("Expected 2 results, got %d", response.Count)
	}
	if response.Results[0].Candidate.Name != "Acme Electrical" {
		t.Errorf("Expected stronger candidate first, got %s", response.Results[0].Candidate.Name)
	}
	if response.Results[0].Rank != 1 {
		t.Errorf("Expected rank 1, got %d", response.Results[0].Rank)
	}
}

func TestRankCandidatesBadWeights(t *testing.T) {
	router := setupScoringRouter()

	body, _ := json.Marshal(map[string]interface{}{
		"candidates": []scoring.Candidate{{ID: uuid.New(), Name: "A"}},
		"min_bond":   100000,
		"state":      "TX",
		"weights":    map[string]float64{"experience": 0.9},
	})

	req := httptest.NewRequest("POST", "/scoring/rank", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for bad weights, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetConfig(t *testing.T) {
	router := setupScoringRouter()

	req := httptest.NewRequest("GET", "/scoring/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if _, exists := response["weights"]; !exists {
		t.Error("Expected 'weights' field in response")
	}
	if _, exists := response["policy"]; !exists {
		t.Error("Expected 'policy' field in response")
	}
}
