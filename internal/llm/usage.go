package llm

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UsageRecord represents a single LLM usage event
type UsageRecord struct {
	ID           uuid.UUID `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Provider     Provider  `json:"provider"`
	Model        string    `json:"model"`
	Tier         Tier      `json:"tier"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	Cost         float64   `json:"cost"` // Estimated cost in USD
	Duration     float64   `json:"duration_ms"`
}

// UsageStats provides aggregate usage statistics
type UsageStats struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalTokens     int64   `json:"total_tokens"`
	InputTokens     int64   `json:"input_tokens"`
	OutputTokens    int64   `json:"output_tokens"`
	EstimatedCost   float64 `json:"estimated_cost_usd"`
	AvgTokensPerReq float64 `json:"avg_tokens_per_request"`
	Period          string  `json:"period"` // "hour", "day", "total"
}

// BudgetConfig configures budget limits
type BudgetConfig struct {
	// HourlyTokenLimit limits tokens per hour (0 = unlimited)
	HourlyTokenLimit int64
	// DailyTokenLimit limits tokens per day (0 = unlimited)
	DailyTokenLimit int64
	// RequestsPerMinute limits request rate (0 = unlimited)
	RequestsPerMinute int
}

// window accumulates usage since start
type window struct {
	start   time.Time
	tokens  int64
	input   int64
	output  int64
	cost    float64
	records int64
}

func (w *window) add(r UsageRecord) {
	w.tokens += int64(r.TotalTokens)
	w.input += int64(r.InputTokens)
	w.output += int64(r.OutputTokens)
	w.cost += r.Cost
	w.records++
}

// roll resets the window when it is older than span
func (w *window) roll(now time.Time, span time.Duration) {
	if now.Sub(w.start) >= span {
		*w = window{start: now}
	}
}

func (w *window) stats(period string) UsageStats {
	s := UsageStats{
		TotalRequests: w.records,
		TotalTokens:   w.tokens,
		InputTokens:   w.input,
		OutputTokens:  w.output,
		EstimatedCost: w.cost,
		Period:        period,
	}
	if w.records > 0 {
		s.AvgTokensPerReq = float64(w.tokens) / float64(w.records)
	}
	return s
}

// UsageTracker tracks LLM usage and enforces budgets. Windows roll lazily on
// access, so the tracker owns no goroutines.
type UsageTracker struct {
	mu     sync.Mutex
	budget BudgetConfig
	now    func() time.Time

	hour   window
	day    window
	total  window
	minute window

	// History (ring buffer)
	records     []UsageRecord
	maxRecords  int
	recordIndex int

	// Cost estimation per 1K tokens
	costPer1K map[Provider]map[string]float64
}

// UsageTrackerConfig configures the usage tracker
type UsageTrackerConfig struct {
	Budget     BudgetConfig
	MaxRecords int // Max records to keep in memory
	Now        func() time.Time
}

// NewUsageTracker creates a new usage tracker
func NewUsageTracker(cfg UsageTrackerConfig) *UsageTracker {
	if cfg.MaxRecords == 0 {
		cfg.MaxRecords = 1000
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	start := cfg.Now()
	return &UsageTracker{
		budget:     cfg.Budget,
		now:        cfg.Now,
		hour:       window{start: start},
		day:        window{start: start},
		total:      window{start: start},
		minute:     window{start: start},
		records:    make([]UsageRecord, cfg.MaxRecords),
		maxRecords: cfg.MaxRecords,
		costPer1K:  defaultCostPer1K(),
	}
}

// defaultCostPer1K returns blended input+output cost estimates per 1K tokens
func defaultCostPer1K() map[Provider]map[string]float64 {
	return map[Provider]map[string]float64{
		ProviderOllama: {
			"default": 0.0, // Local models are free
		},
		ProviderAnthropic: {
			"claude-3-haiku-20240307":    0.00025 + 0.00125,
			"claude-3-5-sonnet-20241022": 0.003 + 0.015,
			"default":                    0.005,
		},
		ProviderOpenAI: {
			"gpt-4":         0.03 + 0.06,
			"gpt-4-turbo":   0.01 + 0.03,
			"gpt-3.5-turbo": 0.0005 + 0.0015,
			"default":       0.01,
		},
	}
}

// Record records a usage event
func (t *UsageTracker) Record(record UsageRecord) {
	record.ID = uuid.New()
	record.TotalTokens = record.InputTokens + record.OutputTokens
	record.Cost = t.estimateCost(record)

	t.mu.Lock()
	defer t.mu.Unlock()

	record.Timestamp = t.now()
	t.rollLocked()
	t.hour.add(record)
	t.day.add(record)
	t.total.add(record)

	t.records[t.recordIndex] = record
	t.recordIndex = (t.recordIndex + 1) % t.maxRecords

	log.Debug().
		Str("provider", string(record.Provider)).
		Str("model", record.Model).
		Int("input_tokens", record.InputTokens).
		Int("output_tokens", record.OutputTokens).
		Float64("cost", record.Cost).
		Msg("recorded LLM usage")
}

// CheckBudget checks if a request of estimatedTokens is within budget
func (t *UsageTracker) CheckBudget(estimatedTokens int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollLocked()

	if t.budget.HourlyTokenLimit > 0 && t.hour.tokens+int64(estimatedTokens) > t.budget.HourlyTokenLimit {
		log.Warn().
			Int64("current", t.hour.tokens).
			Int64("limit", t.budget.HourlyTokenLimit).
			Msg("hourly token limit would be exceeded")
		return ErrBudgetExceeded
	}

	if t.budget.DailyTokenLimit > 0 && t.day.tokens+int64(estimatedTokens) > t.budget.DailyTokenLimit {
		log.Warn().
			Int64("current", t.day.tokens).
			Int64("limit", t.budget.DailyTokenLimit).
			Msg("daily token limit would be exceeded")
		return ErrBudgetExceeded
	}

	if t.budget.RequestsPerMinute > 0 && t.minute.records >= int64(t.budget.RequestsPerMinute) {
		log.Warn().
			Int64("current", t.minute.records).
			Int("limit", t.budget.RequestsPerMinute).
			Msg("rate limit would be exceeded")
		return ErrRateLimited
	}

	return nil
}

// IncrementRequests counts a request against the per-minute limit
func (t *UsageTracker) IncrementRequests() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked()
	t.minute.records++
}

// GetStats returns usage since the tracker was created
func (t *UsageTracker) GetStats() UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total.stats("total")
}

// GetHourlyStats returns usage in the current hour window
func (t *UsageTracker) GetHourlyStats() UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked()
	return t.hour.stats("hour")
}

// GetDailyStats returns usage in the current day window
func (t *UsageTracker) GetDailyStats() UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked()
	return t.day.stats("day")
}

// BudgetStatus represents current budget status
type BudgetStatus struct {
	HourlyTokensUsed  int64   `json:"hourly_tokens_used"`
	HourlyTokensLimit int64   `json:"hourly_tokens_limit"`
	HourlyPercentUsed float64 `json:"hourly_percent_used"`
	DailyTokensUsed   int64   `json:"daily_tokens_used"`
	DailyTokensLimit  int64   `json:"daily_tokens_limit"`
	DailyPercentUsed  float64 `json:"daily_percent_used"`
	TotalSpentUSD     float64 `json:"total_spent_usd"`
}

// GetBudgetStatus returns current budget status
func (t *UsageTracker) GetBudgetStatus() BudgetStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollLocked()

	status := BudgetStatus{
		HourlyTokensUsed:  t.hour.tokens,
		HourlyTokensLimit: t.budget.HourlyTokenLimit,
		DailyTokensUsed:   t.day.tokens,
		DailyTokensLimit:  t.budget.DailyTokenLimit,
		TotalSpentUSD:     t.total.cost,
	}
	if t.budget.HourlyTokenLimit > 0 {
		status.HourlyPercentUsed = float64(status.HourlyTokensUsed) / float64(t.budget.HourlyTokenLimit) * 100
	}
	if t.budget.DailyTokenLimit > 0 {
		status.DailyPercentUsed = float64(status.DailyTokensUsed) / float64(t.budget.DailyTokenLimit) * 100
	}
	return status
}

// RecentRecords returns up to limit records, most recent first
func (t *UsageTracker) RecentRecords(limit int) []UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit > t.maxRecords {
		limit = t.maxRecords
	}

	result := make([]UsageRecord, 0, limit)
	idx := (t.recordIndex - 1 + t.maxRecords) % t.maxRecords
	for i := 0; i < limit; i++ {
		if t.records[idx].ID != uuid.Nil {
			result = append(result, t.records[idx])
		}
		idx = (idx - 1 + t.maxRecords) % t.maxRecords
	}
	return result
}

// ExportJSON exports usage records as JSON
func (t *UsageTracker) ExportJSON() ([]byte, error) {
	return json.Marshal(t.RecentRecords(t.maxRecords))
}

func (t *UsageTracker) estimateCost(record UsageRecord) float64 {
	providerCosts, ok := t.costPer1K[record.Provider]
	if !ok {
		return 0
	}
	costPer1K, ok := providerCosts[record.Model]
	if !ok {
		costPer1K = providerCosts["default"]
	}
	return float64(record.TotalTokens) / 1000.0 * costPer1K
}

func (t *UsageTracker) rollLocked() {
	now := t.now()
	t.minute.roll(now, time.Minute)
	t.hour.roll(now, time.Hour)
	t.day.roll(now, 24*time.Hour)
}
