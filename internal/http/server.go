package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"debts/internal/cache"
	"debts/internal/core"
	"debts/internal/log"
	"debts/internal/middleware/security"
	"debts/internal/middleware/trace"
	appweb "debts/web"
)

const statsCacheKey = "stats"

// DebtService is what the handlers need from the service layer.
type DebtService interface {
	ListDebts(ctx context.Context, search string) ([]core.Debt, error)
	AddDebt(ctx context.Context, name string, amount float64) (core.Debt, bool, error)
	UpdateDebt(ctx context.Context, id int64, action core.Action, amount float64) (core.Debt, bool, error)
	DeleteDebt(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (core.Stats, error)
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	debts     DebtService
	logger    *log.Logger
	structLog *log.StructuredLogger

	statsCache   *cache.LRUCache[core.Stats]
	cacheManager *cache.Manager
	statsMu      sync.Mutex
	statsGen     uint64 // bumped by every invalidation

	traceMiddleware *trace.Middleware
	guard           *security.LocalGuard
	started         time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, debts DebtService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		debts:           debts,
		logger:          logger,
		structLog:       log.NewStructuredLogger(logger),
		statsCache:      cache.NewLRUCache[core.Stats](1, time.Minute),
		cacheManager:    cache.NewManager(),
		traceMiddleware: trace.NewMiddleware(logger, security.ClientIP),
		guard:           security.NewLocalGuard(),
		started:         time.Now(),
	}

	s.cacheManager.Register(s.statsCache)
	s.cacheManager.StartCleanup(5 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.New("pages").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	page := func(h http.HandlerFunc) http.Handler {
		return s.guard.Middleware(s.traceMiddleware.Middleware(headers.Middleware(h)))
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", s.guard.Middleware(security.StaticAssetMiddleware(3600)(static)))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.Handle("GET /{$}", page(s.handleIndex))
	mux.Handle("POST /add", page(s.handleAdd))
	mux.Handle("POST /update/{id}", page(s.handleUpdate))
	mux.Handle("POST /delete/{id}", page(s.handleDelete))
	mux.Handle("GET /stats", page(s.handleStats))
	mux.Handle("GET /healthz", s.guard.Middleware(http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /readyz", s.guard.Middleware(http.HandlerFunc(s.handleReady)))

	return s
}

// Shutdown drains in-flight requests and stops background work.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Close stops the server at once, abandoning in-flight requests.
func (s *Server) Close() error {
	var closeErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		closeErr = s.Server.Close()
	})
	return closeErr
}

func (s *Server) invalidateStats() {
	s.statsMu.Lock()
	s.statsGen++
	s.statsCache.Purge()
	s.statsMu.Unlock()
}

func (s *Server) getStats(ctx context.Context) (core.Stats, error) {
	if stats, ok := s.statsCache.Get(statsCacheKey); ok {
		log.FromContext(ctx).DebugContext(ctx, "Stats cache hit")
		return stats, nil
	}

	s.statsMu.Lock()
	gen := s.statsGen
	s.statsMu.Unlock()

	stats, err := s.debts.Stats(ctx)
	if err != nil {
		return core.Stats{}, err
	}

	// A write that landed while stats were computed may not be counted.
	s.statsMu.Lock()
	if s.statsGen == gen {
		s.statsCache.Set(statsCacheKey, stats)
	}
	s.statsMu.Unlock()
	return stats, nil
}
