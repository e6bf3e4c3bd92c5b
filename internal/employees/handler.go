package employees

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

// Handler manages employee profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers employee routes. Callers must already be authenticated.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequirePermissions(rbac.PermViewAllProfiles, rbac.PermManageAllProfiles)).Get("/", h.list)
	r.Get("/me", h.me)
	r.Get("/{id}", h.get)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := shared.PageParams(q)
	result, err := h.service.List(r.Context(), ListFilter{
		DepartmentCode: q.Get("department"),
		Search:         q.Get("q"),
		Page:           page,
		PerPage:        perPage,
	})
	if err != nil {
		h.logger.Error("list employees failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claim, ok := claims.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(claim.Subject)
	if err != nil {
		httpx.RespondError(w, ErrNotFound)
		return
	}
	h.respondProfile(w, r, id)
}

// get serves a profile to its owner, to holders of the all-profile
// permissions, and to team viewers within the same department.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	claim, ok := claims.FromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, ErrNotFound)
		return
	}
	if claim.Subject == id.String() {
		h.respondProfile(w, r, id)
		return
	}
	gate := h.rbac.Gate
	if gate.Allow(claim.Role, rbac.AnyPermission(rbac.PermViewAllProfiles, rbac.PermManageAllProfiles)) == nil {
		h.respondProfile(w, r, id)
		return
	}
	if !gate.Can(claim.Role, rbac.PermViewTeamProfiles) || claim.DepartmentID == "" {
		httpx.RespondError(w, rbac.ErrForbidden)
		return
	}
	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	if profile.DepartmentID == nil || profile.DepartmentID.String() != claim.DepartmentID {
		httpx.RespondError(w, rbac.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) respondProfile(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	profile, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error("load employee failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
