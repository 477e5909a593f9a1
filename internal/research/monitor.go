package research

import (
	"strings"
	"sync"
	"time"
)

// Monitor tracks research pipeline performance and failure rates
type Monitor struct {
	mu                   sync.RWMutex
	totalFetches         int64
	successfulFetches    int64
	failedFetches        int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64
	consecutiveThreshold int64
}

// FailureRecord represents a single failure event
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Phase     string    `json:"phase"`
	Error     string    `json:"error"`
	URL       string    `json:"url,omitempty"`
}

// PipelineHealth represents the current health of the research pipeline
type PipelineHealth struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalFetches        int64           `json:"total_fetches"`
	SuccessfulFetches   int64           `json:"successful_fetches"`
	FailedFetches       int64           `json:"failed_fetches"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
}

// NewMonitor creates a pipeline monitor
func NewMonitor() *Monitor {
	return &Monitor{
		maxRecentFailures:    50,
		failureThreshold:     0.2, // Alert if failure rate > 20%
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 50),
	}
}

// RecordSuccess records a successful fetch or phase completion
func (m *Monitor) RecordSuccess(phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFetches++
	m.successfulFetches++
	m.consecutiveFailures = 0
	m.lastSuccessTime = time.Now()
}

// RecordFailure records a failed fetch or phase
func (m *Monitor) RecordFailure(phase, errorMsg, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFetches++
	m.failedFetches++
	m.consecutiveFailures++
	m.lastFailureTime = time.Now()

	m.recentFailures = append(m.recentFailures, FailureRecord{
		Timestamp: time.Now(),
		Phase:     phase,
		Error:     errorMsg,
		URL:       url,
	})
	if len(m.recentFailures) > m.maxRecentFailures {
		m.recentFailures = m.recentFailures[1:]
	}
}

// Health returns the current pipeline health
func (m *Monitor) Health() PipelineHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := PipelineHealth{
		TotalFetches:        m.totalFetches,
		SuccessfulFetches:   m.successfulFetches,
		FailedFetches:       m.failedFetches,
		ConsecutiveFailures: m.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(m.recentFailures)),
		HealthIssues:        []string{},
	}
	copy(status.RecentFailures, m.recentFailures)

	if m.totalFetches > 0 {
		status.SuccessRate = float64(m.successfulFetches) / float64(m.totalFetches)
	} else {
		status.SuccessRate = 1.0
	}

	if !m.lastFailureTime.IsZero() {
		status.LastFailureTime = &m.lastFailureTime
	}
	if !m.lastSuccessTime.IsZero() {
		status.LastSuccessTime = &m.lastSuccessTime
	}

	status.IsHealthy = true

	if m.totalFetches >= 10 && status.SuccessRate < (1.0-m.failureThreshold) {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues,
			"High fetch failure rate detected (>20%)")
	}

	if m.consecutiveFailures >= m.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues,
			"Multiple consecutive fetch failures detected")
	}

	m.analyzeFailurePatterns(&status)

	return status
}

// analyzeFailurePatterns looks for dominant error types in recent failures
func (m *Monitor) analyzeFailurePatterns(status *PipelineHealth) {
	if len(m.recentFailures) < 3 {
		return
	}

	errorCounts := make(map[string]int)
	for _, failure := range m.recentFailures {
		errorCounts[categorizeError(failure.Error)]++
	}

	totalRecent := len(m.recentFailures)
	for errorType, count := range errorCounts {
		if float64(count)/float64(totalRecent) > 0.5 {
			switch errorType {
			case "timeout":
				status.HealthIssues = append(status.HealthIssues,
					"Frequent timeout errors from target sites")
			case "rate_limit":
				status.HealthIssues = append(status.HealthIssues,
					"Rate limiting by target sites detected")
			case "network":
				status.HealthIssues = append(status.HealthIssues,
					"Network connectivity issues detected")
			}
		}
	}
}

func categorizeError(errorMsg string) string {
	errorMsg = strings.ToLower(errorMsg)

	if strings.Contains(errorMsg, "timeout") || strings.Contains(errorMsg, "deadline") {
		return "timeout"
	}
	if strings.Contains(errorMsg, "rate limit") || strings.Contains(errorMsg, "429") {
		return "rate_limit"
	}
	if strings.Contains(errorMsg, "network") || strings.Contains(errorMsg, "connection") || strings.Contains(errorMsg, "dns") {
		return "network"
	}

	return "other"
}

// IsHealthy returns true if the pipeline is operating within healthy parameters
func (m *Monitor) IsHealthy() bool {
	return m.Health().IsHealthy
}

// FailureRate returns the current failure rate
func (m *Monitor) FailureRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.totalFetches == 0 {
		return 0.0
	}
	return float64(m.failedFetches) / float64(m.totalFetches)
}

// Reset clears all monitoring data
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFetches = 0
	m.successfulFetches = 0
	m.failedFetches = 0
	m.consecutiveFailures = 0
	m.lastFailureTime = time.Time{}
	m.lastSuccessTime = time.Time{}
	m.recentFailures = m.recentFailures[:0]
}
