package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/reports"
	"expensetracker/internal/services"
	appweb "expensetracker/web"
)

type (
	AuthService interface {
		Register(ctx context.Context, now time.Time, username, password, confirm string) (auth.Session, error)
		Login(ctx context.Context, now time.Time, username, password string) (auth.Session, error)
		Logout(ctx context.Context, token string) error
		Authenticate(ctx context.Context, token string, now time.Time) (auth.Session, error)
		Profile(ctx context.Context, caller core.Caller) (core.User, error)
	}

	ExpenseService interface {
		CreateExpense(ctx context.Context, caller core.Caller, in services.ExpenseInput) (core.Expense, error)
		ListExpenses(ctx context.Context, caller core.Caller) ([]core.Expense, error)
		Dashboard(ctx context.Context, caller core.Caller) (services.Dashboard, error)
	}

	CategoryService interface {
		ListCategories(ctx context.Context, caller core.Caller) ([]core.Category, error)
		CreateCategory(ctx context.Context, caller core.Caller, in services.CategoryInput) (core.Category, error)
	}

	ReportService interface {
		Build(ctx context.Context, caller core.Caller) (reports.Report, error)
	}

	// Pinger checks the database for /readyz.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Config holds the listener settings.
type Config struct {
	Addr               string
	SecureCookies      bool
	RateLimitPerMinute int
}

// Deps are the services the handlers call.
type Deps struct {
	Auth       AuthService
	Expenses   ExpenseService
	Categories CategoryService
	Reports    ReportService
	DB         Pinger
	Metrics    *metrics.Metrics
	Logger     *log.Logger
}

type Server struct {
	http.Server
	templates map[string]*template.Template

	auth       AuthService
	expenses   ExpenseService
	categories CategoryService
	reports    ReportService
	db         Pinger

	metrics       *metrics.Metrics
	logger        *log.Logger
	rateLimiter   *ratelimit.Limiter
	detector      *security.Detector
	secureCookies bool
	started       time.Time
	now           func() time.Time

	shutdownOnce sync.Once
}

// pages are rendered inside templates/base.html.
var pages = []string{
	"login.html",
	"register.html",
	"dashboard.html",
	"transactions.html",
	"transaction_create.html",
	"categories.html",
	"add_category.html",
	"reports.html",
	"profile.html",
}

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"mul": func(a, b int) int { return a * b },
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(templateFuncs).ParseFS(fsys, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		out[page] = t
	}
	return out, nil
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	templates, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates:     templates,
		auth:          deps.Auth,
		expenses:      deps.Expenses,
		categories:    deps.Categories,
		reports:       deps.Reports,
		db:            deps.DB,
		metrics:       deps.Metrics,
		logger:        logger,
		detector:      security.NewDetector(logger),
		secureCookies: cfg.SecureCookies,
		started:       time.Now(),
		now:           time.Now,
	}
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	// metrics sits next to the mux: it reads the route pattern the mux sets
	// on the request.
	var handler http.Handler = mux
	if s.metrics != nil {
		handler = s.metrics.Middleware(handler)
	}
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.rateLimited)(handler)
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err == nil {
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
			http.StripPrefix("/static/", http.FileServer(http.FS(static)))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard/", http.StatusFound)
	})

	mux.HandleFunc("GET /login/{$}", s.handleLoginForm)
	mux.HandleFunc("POST /login/{$}", s.handleLogin)
	mux.HandleFunc("GET /register/{$}", s.handleRegisterForm)
	mux.HandleFunc("POST /register/{$}", s.handleRegister)

	mux.Handle("GET /logout/{$}", s.requireAuth(s.handleLogout))
	mux.Handle("GET /profile/{$}", s.requireAuth(s.handleProfile))
	mux.Handle("GET /dashboard/{$}", s.requireAuth(s.handleDashboard))
	mux.Handle("GET /expenses/{$}", s.requireAuth(s.handleListExpenses))
	mux.Handle("GET /expenses/create/{$}", s.requireAuth(s.handleCreateExpenseForm))
	mux.Handle("POST /expenses/create/{$}", s.requireAuth(s.handleCreateExpense))
	mux.Handle("GET /category/{$}", s.requireAuth(s.handleListCategories))
	mux.Handle("GET /category/create/{$}", s.requireAuth(s.handleCreateCategoryForm))
	mux.Handle("POST /category/create/{$}", s.requireAuth(s.handleCreateCategory))
	mux.Handle("GET /reports/{$}", s.requireAuth(s.handleReports))
	mux.Handle("GET /reports/export/{$}", s.requireAuth(s.handleExportReport))
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if wantsJSON(r) {
		JSONError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
		return
	}
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
