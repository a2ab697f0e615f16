package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// StreamStats is a point-in-time view of one ingest stream.
type StreamStats struct {
	Accepted     int64     `json:"accepted"`
	Skipped      int64     `json:"skipped"`
	CorruptLines int64     `json:"corruptLines"`
	LastReceived time.Time `json:"lastReceived"`
}

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ingest metrics, keyed by stream name
	recordsAccepted map[string]int64
	recordsSkipped  map[string]int64
	corruptLines    map[string]int64
	lastReceived    map[string]time.Time

	// Storage metrics
	StorageErrorsTotal int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			recordsAccepted:      make(map[string]int64),
			recordsSkipped:       make(map[string]int64),
			corruptLines:         make(map[string]int64),
			lastReceived:         make(map[string]time.Time),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordAccepted increments the accepted counter for a stream
func (m *Metrics) RecordAccepted(stream string) {
	m.mu.Lock()
	m.recordsAccepted[stream]++
	m.lastReceived[stream] = time.Now()
	m.mu.Unlock()
}

// RecordSkipped increments the skipped counter for a stream
func (m *Metrics) RecordSkipped(stream string) {
	m.mu.Lock()
	m.recordsSkipped[stream]++
	m.mu.Unlock()
}

// RecordCorruptLine increments the corrupt line counter for a stream
func (m *Metrics) RecordCorruptLine(stream string) {
	m.mu.Lock()
	m.corruptLines[stream]++
	m.mu.Unlock()
}

// RecordStorageError increments the storage error counter
func (m *Metrics) RecordStorageError() {
	m.mu.Lock()
	m.StorageErrorsTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// GetStreamStats returns per-stream ingest statistics
func (m *Metrics) GetStreamStats() map[string]StreamStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]StreamStats, len(m.recordsAccepted))
	for stream := range m.recordsAccepted {
		stats[stream] = StreamStats{
			Accepted:     m.recordsAccepted[stream],
			Skipped:      m.recordsSkipped[stream],
			CorruptLines: m.corruptLines[stream],
			LastReceived: m.lastReceived[stream],
		}
	}
	// Streams that only ever skipped or hit corruption still show up
	for stream := range m.recordsSkipped {
		if _, ok := stats[stream]; !ok {
			stats[stream] = StreamStats{
				Skipped:      m.recordsSkipped[stream],
				CorruptLines: m.corruptLines[stream],
			}
		}
	}
	for stream := range m.corruptLines {
		if _, ok := stats[stream]; !ok {
			stats[stream] = StreamStats{CorruptLines: m.corruptLines[stream]}
		}
	}
	return stats
}

// Handler returns an HTTP handler for the /api/metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("pbxwatch_uptime_seconds", time.Since(m.startTime).Seconds())

		// Ingest metrics
		for stream, count := range m.recordsAccepted {
			write("pbxwatch_records_accepted_total", count, "stream", stream)
		}
		for stream, count := range m.recordsSkipped {
			write("pbxwatch_records_skipped_total", count, "stream", stream)
		}
		for stream, count := range m.corruptLines {
			write("pbxwatch_corrupt_lines_total", count, "stream", stream)
		}

		// Storage metrics
		write("pbxwatch_storage_errors_total", m.StorageErrorsTotal)

		// WebSocket metrics
		write("pbxwatch_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("pbxwatch_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("pbxwatch_websocket_active_connections", m.activeConnections)
		write("pbxwatch_websocket_errors_total", m.WebSocketErrorsTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("pbxwatch_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
		for endpoint, durations := range m.httpRequestDurations {
			if len(durations) == 0 {
				continue
			}
			var sum float64
			for _, d := range durations {
				sum += d
			}
			write("pbxwatch_http_request_duration_seconds_avg", sum/float64(len(durations)), "endpoint", endpoint)
		}
	}
}
