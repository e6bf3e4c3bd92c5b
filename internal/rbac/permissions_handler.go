package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
)

// PermissionsHandler exposes the static registry.
type PermissionsHandler struct {
	gate *Gate
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(gate *Gate) *PermissionsHandler {
	return &PermissionsHandler{gate: gate}
}

// MountRoutes registers permission routes. Callers must already be authenticated.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.listPermissions)
}

// PermissionView is one permission with its display label.
type PermissionView struct {
	Name  Permission `json:"name"`
	Label string     `json:"label"`
}

// RoleView lists the permissions granted to a role.
type RoleView struct {
	Name        Role         `json:"name"`
	Permissions []Permission `json:"permissions"`
}

// RegistryView is the JSON body served by GET /permissions.
type RegistryView struct {
	Permissions []PermissionView `json:"permissions"`
	Roles       []RoleView       `json:"roles"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, DescribeRegistry(h.gate.Registry()))
}

// DescribeRegistry renders the registry as a serialisable view.
func DescribeRegistry(reg *Registry) RegistryView {
	title := cases.Title(language.English)
	view := RegistryView{}
	for _, p := range Permissions() {
		view.Permissions = append(view.Permissions, PermissionView{Name: p, Label: PermissionLabel(title, p)})
	}
	for _, role := range Roles() {
		set, err := reg.PermissionsFor(role)
		if err != nil {
			continue
		}
		view.Roles = append(view.Roles, RoleView{Name: role, Permissions: set.Slice()})
	}
	return view
}

// PermissionLabel turns MANAGE_ALL_PROFILES into "Manage All Profiles".
func PermissionLabel(title cases.Caser, p Permission) string {
	return title.String(NormalizeLabel(string(p)))
}
