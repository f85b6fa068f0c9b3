// Package api implements the staking core's two advisory HTTP surfaces
// (SPEC_FULL.md §A.6, §A.7): a read-only query API over the committed
// Snapshot, and a websocket stream of block-commit notifications. Neither
// surface ever mutates state directly or influences consensus — every
// write still flows through staking/driver.Driver, reached only via the
// submissionQueue a block loop drains each block.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stakingcore/core/events"
	"stakingcore/core/state"
	"stakingcore/core/types"
	"stakingcore/observability"
	"stakingcore/staking/params"
)

// Config configures the two servers api.New starts.
type Config struct {
	QueryListenAddr     string
	NotifyListenAddr    string
	SubmissionJWTSecret string
	SubmissionJWTIssuer string
	RateLimitPerSecond  float64
	RateLimitBurst      int

	// SubmissionQuotaPerEpoch caps how many gated operations one signer may
	// submit within SubmissionQuotaEpochBlocks blocks. Zero disables the
	// quota.
	SubmissionQuotaPerEpoch    uint32
	SubmissionQuotaEpochBlocks uint64
}

// Server wires the query router, the submission queue, and the
// notification hub over a shared core/state.Manager.
type Server struct {
	manager *state.Manager
	econ    params.EconomicConfig
	pending *submissionQueue
	notify  *notifyHub
	auth    *authenticator
	limiter *rateLimiter
	quota   *submissionQuota

	cfg Config

	queryHTTP  *http.Server
	notifyHTTP *http.Server
}

// New constructs a Server. Call Start to begin serving both listeners.
func New(manager *state.Manager, econ params.EconomicConfig, cfg Config) *Server {
	return &Server{
		manager: manager,
		econ:    econ,
		pending: newSubmissionQueue(),
		notify:  newNotifyHub(),
		auth:    newAuthenticator(cfg.SubmissionJWTSecret, cfg.SubmissionJWTIssuer),
		limiter: newRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		quota:   newSubmissionQuota(cfg.SubmissionQuotaPerEpoch, cfg.SubmissionQuotaEpochBlocks),
		cfg:     cfg,
	}
}

// DrainSubmissions returns every gated operation accepted by the
// governance-submission endpoint since the last call, for the block loop to
// include in its next ProcessBlock call.
func (s *Server) DrainSubmissions() []types.Operation { return s.pending.Drain() }

// Publish fans one block's events and validator diff out to websocket
// subscribers. The block loop calls this once per committed height.
func (s *Server) Publish(height uint64, evs []events.Event, diff []types.ValidatorUpdate) {
	s.notify.publish(height, evs, diff)
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(otelMiddleware)
	r.Use(s.limiter.middleware("query"))

	r.Get("/v1/snapshot", s.observe("snapshot", s.handleSnapshot))
	r.Get("/v1/validators", s.observe("validators", s.handleValidators))
	r.Get("/v1/validators/{tdPubKey}", s.observe("validator", s.handleValidator))
	r.Get("/v1/delegations/{address}", s.observe("delegations", s.handleDelegations))
	r.Get("/v1/payouts", s.observe("payouts", s.handlePayouts))

	r.Group(func(gr chi.Router) {
		gr.Use(s.auth.middleware)
		gr.Post("/v1/governance/submit", s.observe("governance_submit", s.handleSubmitGovernance))
	})

	return r
}

func (s *Server) notifyRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/stream", s.handleNotifyStream)
	return r
}

// observe wraps a handler with the module request-metrics recorder
// (observability.ModuleMetrics), matching the teacher's
// gateway/middleware.Observability pattern of recording route+method+status
// alongside the generic otelhttp span.
func (s *Server) observe(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		observability.ModuleMetrics().Observe(route, r.Method, rec.status, time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func otelMiddleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "staking-api")
}

// Start launches both HTTP listeners in background goroutines. It returns
// once both are listening; call Shutdown to stop them.
func (s *Server) Start() error {
	queryLn, err := net.Listen("tcp", s.cfg.QueryListenAddr)
	if err != nil {
		return err
	}
	notifyLn, err := net.Listen("tcp", s.cfg.NotifyListenAddr)
	if err != nil {
		_ = queryLn.Close()
		return err
	}

	s.queryHTTP = &http.Server{Handler: s.router()}
	s.notifyHTTP = &http.Server{Handler: s.notifyRouter()}

	go func() { _ = s.queryHTTP.Serve(queryLn) }()
	go func() { _ = s.notifyHTTP.Serve(notifyLn) }()
	return nil
}

// Shutdown gracefully stops both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.queryHTTP != nil {
		_ = s.queryHTTP.Shutdown(ctx)
	}
	if s.notifyHTTP != nil {
		_ = s.notifyHTTP.Shutdown(ctx)
	}
	return nil
}
