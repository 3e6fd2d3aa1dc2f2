package metrics

import (
	"context"
	"expvar"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Expvar metrics
	WhatsAppMessageReceived = expvar.NewInt("whatsapp_message_received")
	WhatsAppMessageSent     = expvar.NewInt("whatsapp_message_sent")
	WhatsAppSendFailed      = expvar.NewInt("whatsapp_send_failed")
	ReadReceiptFailed       = expvar.NewInt("read_receipt_failed")
	DuplicateEventCount     = expvar.NewInt("duplicate_event_count")
	DedupStoreErrorCount    = expvar.NewInt("dedup_store_error_count")
	InvalidPayloadCount     = expvar.NewInt("invalid_payload_count")
	QueueDroppedCount       = expvar.NewInt("queue_dropped_count")
	SuccessfulLLMGen        = expvar.NewInt("successful_llm_gen_count")
	EmptyLLMResponse        = expvar.NewInt("empty_llm_response_count")
	FailedLLMGen            = expvar.NewInt("failed_llm_gen_count")
	RemindersFired          = expvar.NewInt("reminders_fired")

	// Prometheus metrics with labels
	CommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_command_total",
			Help: "Total number of routed commands by command type",
		},
		[]string{"command"},
	)

	CommandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_command_errors",
			Help: "Total number of command handler errors by command type",
		},
		[]string{"command"},
	)

	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whatsapp_command_duration_seconds",
			Help:    "Duration of command handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	RemindersScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Reminder scheduling attempts by outcome (scheduled, too_late)",
		},
		[]string{"outcome"},
	)

	RemindersPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminders_pending",
			Help: "Reminders armed in memory and not yet fired",
		},
	)

	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls to third-party services by service and result",
		},
		[]string{"service", "result"},
	)
)

type Server struct {
	*http.Server
}

// SetupServer registers the collectors and returns the metrics/pprof server on addr.
func SetupServer(addr string) *Server {
	if addr == "" {
		addr = ":6060"
	}

	// pprof is setup by importing the net/http/pprof package
	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewExpvarCollector(
			map[string]*prometheus.Desc{
				"whatsapp_message_received": prometheus.NewDesc("whatsapp_message_received", "number of inbound messages that passed payload validation", nil, nil),
				"whatsapp_message_sent":     prometheus.NewDesc("whatsapp_message_sent", "number of messages sent to whatsapp", nil, nil),
				"whatsapp_send_failed":      prometheus.NewDesc("whatsapp_send_failed", "number of failed whatsapp send calls", nil, nil),
				"read_receipt_failed":       prometheus.NewDesc("read_receipt_failed", "number of failed read receipt calls", nil, nil),
				"duplicate_event_count":     prometheus.NewDesc("duplicate_event_count", "number of webhook events dropped as duplicates", nil, nil),
				"dedup_store_error_count":   prometheus.NewDesc("dedup_store_error_count", "number of dedup store errors", nil, nil),
				"invalid_payload_count":     prometheus.NewDesc("invalid_payload_count", "number of webhook payloads without a message entry", nil, nil),
				"queue_dropped_count":       prometheus.NewDesc("queue_dropped_count", "number of events dropped because the work queue was full", nil, nil),
				"successful_llm_gen_count":  prometheus.NewDesc("successful_llm_gen_count", "number of times llm generated a valid response", nil, nil),
				"empty_llm_response_count":  prometheus.NewDesc("empty_llm_response_count", "number of times llm responded with an empty string", nil, nil),
				"failed_llm_gen_count":      prometheus.NewDesc("failed_llm_gen_count", "number of times errors occured in llm generation", nil, nil),
				"reminders_fired":           prometheus.NewDesc("reminders_fired", "number of reminders delivered", nil, nil),
			},
		),
		CommandTotal,
		CommandErrors,
		CommandDuration,
		RemindersScheduled,
		RemindersPending,
		UpstreamRequests,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/", http.DefaultServeMux) // pprof + expvar
	mux.HandleFunc("/healthz", healthzHandler)
	server.Handler = mux
	return &Server{server}
}

// ObserveUpstream counts one call to a third-party service.
func ObserveUpstream(service string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	UpstreamRequests.WithLabelValues(service, result).Inc()
}

// healthzHandler returns a simple health check response
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) Run() {
	_ = s.ListenAndServe()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.Shutdown(ctx)
}
