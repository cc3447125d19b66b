package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const maxLatencySamples = 1000

// ServiceMetrics tracks request counts and latency for one service
type ServiceMetrics struct {
	serviceName    string
	total          int64
	successful     int64
	failed         int64
	totalTime      time.Duration
	lastUpdated    time.Time
	counters       map[string]int64
	latencySamples []time.Duration
	minTime        time.Duration
	maxTime        time.Duration
	mutex          sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of ServiceMetrics
type MetricsSnapshot struct {
	ServiceName           string           `json:"service_name"`
	TotalRequests         int64            `json:"total_requests"`
	SuccessfulRequests    int64            `json:"successful_requests"`
	FailedRequests        int64            `json:"failed_requests"`
	SuccessRate           float64          `json:"success_rate"`
	AverageProcessingTime time.Duration    `json:"average_processing_time"`
	MinProcessingTime     time.Duration    `json:"min_processing_time"`
	MaxProcessingTime     time.Duration    `json:"max_processing_time"`
	P95ProcessingTime     time.Duration    `json:"p95_processing_time"`
	P99ProcessingTime     time.Duration    `json:"p99_processing_time"`
	Counters              map[string]int64 `json:"counters"`
	LastUpdated           time.Time        `json:"last_updated"`
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		serviceName:    serviceName,
		lastUpdated:    time.Now(),
		counters:       make(map[string]int64),
		latencySamples: make([]time.Duration, 0, maxLatencySamples),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.total++
	m.totalTime += processingTime
	if success {
		m.successful++
	} else {
		m.failed++
	}

	if m.minTime == 0 || processingTime < m.minTime {
		m.minTime = processingTime
	}
	if processingTime > m.maxTime {
		m.maxTime = processingTime
	}

	// keep the most recent samples for percentiles
	if len(m.latencySamples) >= maxLatencySamples {
		m.latencySamples = m.latencySamples[1:]
	}
	m.latencySamples = append(m.latencySamples, processingTime)
	m.lastUpdated = time.Now()
}

// IncrementCounter increments a named counter
func (m *ServiceMetrics) IncrementCounter(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[key]++
	m.lastUpdated = time.Now()
}

// Snapshot returns a thread-safe copy of the current metrics
func (m *ServiceMetrics) Snapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	snapshot := MetricsSnapshot{
		ServiceName:        m.serviceName,
		TotalRequests:      m.total,
		SuccessfulRequests: m.successful,
		FailedRequests:     m.failed,
		MinProcessingTime:  m.minTime,
		MaxProcessingTime:  m.maxTime,
		Counters:           counters,
		LastUpdated:        m.lastUpdated,
	}
	if m.total > 0 {
		snapshot.SuccessRate = float64(m.successful) / float64(m.total) * 100.0
		snapshot.AverageProcessingTime = time.Duration(int64(m.totalTime) / m.total)
	}
	snapshot.P95ProcessingTime, snapshot.P99ProcessingTime = percentiles(m.latencySamples)

	return snapshot
}

func percentiles(samples []time.Duration) (p95, p99 time.Duration) {
	if len(samples) == 0 {
		return 0, 0
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	p95Index := int(float64(len(sorted)) * 0.95)
	p99Index := int(float64(len(sorted)) * 0.99)
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}
	if p99Index >= len(sorted) {
		p99Index = len(sorted) - 1
	}
	return sorted[p95Index], sorted[p99Index]
}

// LogSummary logs a metrics summary
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.Snapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"p95_processing_time":     snapshot.P95ProcessingTime,
		"p99_processing_time":     snapshot.P99ProcessingTime,
		"counters":                snapshot.Counters,
	}).Info("Service metrics summary")
}

// Reset resets all metrics to zero
func (m *ServiceMetrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.total = 0
	m.successful = 0
	m.failed = 0
	m.totalTime = 0
	m.minTime = 0
	m.maxTime = 0
	m.counters = make(map[string]int64)
	m.latencySamples = make([]time.Duration, 0, maxLatencySamples)
	m.lastUpdated = time.Now()

	logrus.WithField("service_name", m.serviceName).Info("Service metrics reset")
}

// DatabaseMetrics tracks database operation performance and success rates
type DatabaseMetrics struct {
	TotalQueries      int64         `json:"total_queries"`
	SuccessfulQueries int64         `json:"successful_queries"`
	FailedQueries     int64         `json:"failed_queries"`
	SlowQueries       int64         `json:"slow_queries"`
	TotalQueryTime    time.Duration `json:"total_query_time"`
	AverageQueryTime  time.Duration `json:"average_query_time"`
	mutex             sync.RWMutex
}

// DatabaseMetricsSnapshot is a point-in-time copy of DatabaseMetrics
type DatabaseMetricsSnapshot struct {
	TotalQueries      int64         `json:"total_queries"`
	SuccessfulQueries int64         `json:"successful_queries"`
	FailedQueries     int64         `json:"failed_queries"`
	SlowQueries       int64         `json:"slow_queries"`
	AverageQueryTime  time.Duration `json:"average_query_time"`
}

func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// RecordQuery records a database query with its success status and execution time
func (dm *DatabaseMetrics) RecordQuery(success bool, queryTime time.Duration, isSlowQuery bool) {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.TotalQueries++
	dm.TotalQueryTime += queryTime
	dm.AverageQueryTime = time.Duration(int64(dm.TotalQueryTime) / dm.TotalQueries)

	if success {
		dm.SuccessfulQueries++
	} else {
		dm.FailedQueries++
	}

	if isSlowQuery {
		dm.SlowQueries++
	}
}

func (dm *DatabaseMetrics) Snapshot() DatabaseMetricsSnapshot {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	return DatabaseMetricsSnapshot{
		TotalQueries:      dm.TotalQueries,
		SuccessfulQueries: dm.SuccessfulQueries,
		FailedQueries:     dm.FailedQueries,
		SlowQueries:       dm.SlowQueries,
		AverageQueryTime:  dm.AverageQueryTime,
	}
}
