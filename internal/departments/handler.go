package departments

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
)

// Auditor records org structure changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Handler exposes department endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
	audit   Auditor
}

// NewHandler builds Handler instance. audit may be nil.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware, audit Auditor) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: mw, audit: audit}
}

// MountRoutes registers department routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermissions(rbac.PermViewOrgStructure, rbac.PermManageOrgStructure))
		r.Get("/", h.list)
		r.Get("/tree", h.tree)
		r.Get("/{code}", h.get)
	})
	r.With(h.rbac.RequirePermissions(rbac.PermManageOrgStructure)).Post("/", h.create)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list departments failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"departments": items})
}

func (h *Handler) tree(w http.ResponseWriter, r *http.Request) {
	roots, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("department tree failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tree": roots})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	dept, err := h.service.ResolveCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("get department failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dept)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dept, err := h.service.Create(r.Context(), input)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("create department failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	h.record(r.Context(), dept)
	httpx.Created(w, "/departments/"+dept.Code, dept)
}

func (h *Handler) record(ctx context.Context, dept Department) {
	if h.audit == nil {
		return
	}
	entry := shared.AuditLog{
		Action:   shared.AuditActionDeptCreate,
		Entity:   "department",
		EntityID: dept.ID.String(),
		Meta:     map[string]any{"code": dept.Code},
	}
	if claim, ok := claims.FromContext(ctx); ok {
		if actor, err := uuid.Parse(claim.Subject); err == nil {
			entry.ActorID = &actor
		}
	}
	if err := h.audit.Record(ctx, entry); err != nil {
		h.logger.Warn("audit department create", slog.Any("error", err))
	}
}
