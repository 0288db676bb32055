// Package analytics records per-search telemetry in a bounded in-memory
// buffer. Recording is best-effort: it never fails the caller and holds no
// durable state, so the history is empty after a restart.
package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/knoguchi/kbsearch/internal/query"
)

const (
	// DefaultCapacity is the FIFO buffer size; the oldest record is evicted
	// on overflow.
	DefaultCapacity = 1000

	// recentWindow is how many of the newest records feed the top-query
	// computation.
	recentWindow = 100

	// topQueryLimit caps the number of queries reported in a summary.
	topQueryLimit = 10
)

// Record is one search request's telemetry.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	Query       string    `json:"query"`
	QueryType   string    `json:"query_type"`
	Intent      string    `json:"intent"`
	ResultCount int       `json:"result_count"`
	ElapsedMs   float64   `json:"elapsed_ms"`
	Strategy    string    `json:"strategy"`
}

// QueryCount pairs a query string with its frequency.
type QueryCount struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Summary aggregates the current buffer contents.
type Summary struct {
	TotalSearches      int            `json:"total_searches"`
	AvgElapsedMs       float64        `json:"avg_elapsed_ms"`
	AvgResultCount     float64        `json:"avg_result_count"`
	QueryTypeHistogram map[string]int `json:"query_type_histogram"`
	TopQueries         []QueryCount   `json:"top_queries"`
}

// Recorder is a mutex-guarded FIFO buffer of search records. It is owned by
// the service and shared by all request handlers; appends are serialized so
// the capacity invariant holds under concurrent load.
type Recorder struct {
	mu       sync.Mutex
	records  []Record
	capacity int
}

// NewRecorder creates a recorder with the given capacity, or
// DefaultCapacity if it is not positive.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Record appends one search's telemetry, evicting the oldest record when the
// buffer is full. It never fails.
func (r *Recorder) Record(qc *query.Context, resultCount int, elapsed time.Duration, strategy string) {
	if qc == nil {
		return
	}

	rec := Record{
		Timestamp:   time.Now(),
		Query:       qc.Original,
		QueryType:   string(qc.Type),
		Intent:      string(qc.Intent),
		ResultCount: resultCount,
		ElapsedMs:   float64(elapsed) / float64(time.Millisecond),
		Strategy:    strategy,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, rec)
	if len(r.records) > r.capacity {
		r.records = r.records[len(r.records)-r.capacity:]
	}
}

// Len returns the current number of buffered records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Recent returns a copy of the n newest records, oldest first.
func (r *Recorder) Recent(n int) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.records
	if len(records) > n {
		records = records[len(records)-n:]
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}

// Summary computes aggregates over the current buffer contents.
func (r *Recorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		TotalSearches:      len(r.records),
		QueryTypeHistogram: make(map[string]int),
		TopQueries:         []QueryCount{},
	}
	if len(r.records) == 0 {
		return s
	}

	var totalElapsed, totalResults float64
	for _, rec := range r.records {
		totalElapsed += rec.ElapsedMs
		totalResults += float64(rec.ResultCount)
		s.QueryTypeHistogram[rec.QueryType]++
	}
	s.AvgElapsedMs = totalElapsed / float64(len(r.records))
	s.AvgResultCount = totalResults / float64(len(r.records))
	s.TopQueries = r.topQueries()

	return s
}

// topQueries ranks the most recent records by exact query-string frequency.
// Ties are broken by recency: the query seen more recently ranks first.
// Caller must hold the mutex.
func (r *Recorder) topQueries() []QueryCount {
	recent := r.records
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	counts := make(map[string]int)
	lastSeen := make(map[string]int)
	for i, rec := range recent {
		counts[rec.Query]++
		lastSeen[rec.Query] = i
	}

	top := make([]QueryCount, 0, len(counts))
	for q, c := range counts {
		top = append(top, QueryCount{Query: q, Count: c})
	}

	// Frequency descending, then most recently seen first.
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return lastSeen[top[i].Query] > lastSeen[top[j].Query]
	})

	if len(top) > topQueryLimit {
		top = top[:topQueryLimit]
	}
	return top
}
