package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/envutil"
	"github.com/fafiyusuf/AI-Powered-Study-Pal/internal/platform/logger"
)

type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	llmRequests   *CounterVec
	llmLatency    *HistogramVec
	extraction    *CounterVec
	extractionDur *HistogramVec
	aiCache       *CounterVec
	rateLimited   *Counter
	pgStats       *GaugeVec
	redisUp       *Gauge
	redisPing     *Gauge
	redisPool     *GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when Init was not called or
// metrics are disabled. Every method is nil-safe.
func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	n := envutil.Int("METRICS_SCRAPE_INTERVAL_SECONDS", 10)
	if n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("sp_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"sp_api_request_duration_seconds",
			"API request latency in seconds.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		),
		apiInflight: NewGauge("sp_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("sp_llm_requests_total", "LLM attempts by provider/model/status.", []string{"provider", "model", "status"}),
		llmLatency: NewHistogramVec(
			"sp_llm_request_duration_seconds",
			"LLM attempt latency in seconds.",
			[]string{"provider", "model", "status"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		),
		extraction: NewCounterVec("sp_pdf_extraction_total", "PDF extraction outcomes by strategy.", []string{"strategy", "outcome"}),
		extractionDur: NewHistogramVec(
			"sp_pdf_extraction_duration_seconds",
			"PDF extraction stage duration in seconds.",
			[]string{"strategy"},
			[]float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		),
		aiCache:     NewCounterVec("sp_ai_cache_total", "AI response cache lookups by result.", []string{"result"}),
		rateLimited: NewCounter("sp_ai_rate_limited_total", "AI requests rejected by the per-user rate limit."),
		pgStats:     NewGaugeVec("sp_postgres_stats", "Postgres connection stats.", []string{"metric"}),
		redisUp:     NewGauge("sp_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing:   NewGauge("sp_redis_ping_seconds", "Redis ping latency in seconds."),
		redisPool:   NewGaugeVec("sp_redis_pool", "Redis client pool stats.", []string{"metric"}),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.extraction, m.extractionDur,
		m.aiCache, m.rateLimited,
		m.pgStats, m.redisUp, m.redisPing, m.redisPool,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveLLMRequest records one provider attempt. status is "ok" or an
// upstream HTTP status / error class.
func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "unknown"
	}
	if model == "" {
		model = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	m.llmRequests.Inc(provider, model, status)
	m.llmLatency.Observe(dur.Seconds(), provider, model, status)
}

func (m *Metrics) ObserveExtraction(strategy, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "unknown"
	}
	m.extraction.Inc(strategy, outcome)
	m.extractionDur.Observe(dur.Seconds(), strategy)
}

func (m *Metrics) IncAICache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.aiCache.Inc("hit")
		return
	}
	m.aiCache.Inc("miss")
}

func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb and exports its pool stats. The client is
// owned by the caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
				if ps := rdb.PoolStats(); ps != nil {
					m.redisPool.Set(float64(ps.TotalConns), "total_conns")
					m.redisPool.Set(float64(ps.IdleConns), "idle_conns")
					m.redisPool.Set(float64(ps.Hits), "hits")
					m.redisPool.Set(float64(ps.Misses), "misses")
					m.redisPool.Set(float64(ps.Timeouts), "timeouts")
				}
			}
		}
	}()
}

// StatusLabel renders an HTTP status for metric labels.
func StatusLabel(code int) string {
	if code <= 0 {
		return "0"
	}
	return strconv.Itoa(code)
}
