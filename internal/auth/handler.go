package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
	"github.com/odyssey-hr/odyssey-hr/internal/uiaccess"
)

const invalidCredentialsDetail = "Invalid email or password"

// HandlerConfig wires HTTP endpoints for authentication flows.
type HandlerConfig struct {
	Logger        *slog.Logger
	Service       *Service
	Authenticate  func(http.Handler) http.Handler
	Registry      *rbac.Registry
	Navigator     *uiaccess.Navigator
	RateLimit     int
	RateLimitSpan time.Duration
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	authenticate func(http.Handler) http.Handler
	registry     *rbac.Registry
	navigator    *uiaccess.Navigator
	limiter      func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit, span := cfg.RateLimit, cfg.RateLimitSpan
	if limit <= 0 {
		limit = 20
	}
	if span <= 0 {
		span = time.Minute
	}
	return &Handler{
		logger:       logger,
		service:      cfg.Service,
		authenticate: cfg.Authenticate,
		registry:     cfg.Registry,
		navigator:    cfg.Navigator,
		limiter: httprate.Limit(limit, span,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				httpx.ProblemFor(w, r, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "too many attempts, try again later")
			}),
		),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.limiter)
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Register(r.Context(), input)
	if err != nil {
		h.respondError(w, "register", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.ProblemFor(w, r, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), invalidCredentialsDetail)
			return
		}
		h.respondError(w, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claim, ok := claims.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, h.service.Logout(r.Context(), claim))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claim, ok := claims.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	me := Me{User: claim, Permissions: []rbac.Permission{}, Navigation: []uiaccess.Route{}}
	if h.registry != nil {
		if perms, err := h.registry.PermissionsFor(claim.Role); err == nil {
			me.Permissions = perms.Slice()
		}
	}
	if h.navigator != nil {
		me.Navigation = h.navigator.VisibleRoutes(claim)
	}
	httpx.JSON(w, http.StatusOK, me)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
