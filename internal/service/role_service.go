package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"erpcrm/internal/model"
	"erpcrm/internal/repository"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required,max=50"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // permission codes
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	Permissions []string `json:"permissions" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// PermissionInvalidator drops cached permission sets of a role
type PermissionInvalidator interface {
	InvalidateRole(role string)
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	repo        repository.RoleRepository
	txManager   repository.TransactionManager
	invalidator PermissionInvalidator
}

func NewRoleService(repo repository.RoleRepository, txManager repository.TransactionManager, invalidator PermissionInvalidator) RoleService {
	return &roleService{repo: repo, txManager: txManager, invalidator: invalidator}
}

// Resources exposing the CRUD surface, keyed by their URL segment
var crudResources = []struct {
	Code       string
	Label      string
	Exportable bool
}{
	{"partners", "Partners", true},
	{"clients", "Clients", true},
	{"vendors", "Vendors", true},
	{"product-categories", "Product categories", false},
	{"products", "Products", true},
	{"payment-conditions", "Payment conditions", false},
	{"sales-orders", "Sales orders", true},
	{"purchase-orders", "Purchase orders", true},
	{"bank-accounts", "Bank accounts", false},
	{"payables", "Payables", true},
	{"receivables", "Receivables", true},
	{"users", "Users", false},
}

// DefaultPermissions lists every permission the application checks
func DefaultPermissions() []model.Permission {
	perms := []model.Permission{
		{Code: "dashboard.read", Name: "View dashboard", Group: "dashboard"},
		{Code: "audit.read", Name: "View audit log", Group: "audit"},
		{Code: "roles.manage", Name: "Manage roles and permissions", Group: "roles"},
	}
	for _, r := range crudResources {
		perms = append(perms,
			model.Permission{Code: r.Code + ".read", Name: "View " + r.Label, Group: r.Code},
			model.Permission{Code: r.Code + ".write", Name: "Create and edit " + r.Label, Group: r.Code},
			model.Permission{Code: r.Code + ".delete", Name: "Delete and restore " + r.Label, Group: r.Code},
			model.Permission{Code: r.Code + ".force_delete", Name: "Permanently delete " + r.Label, Group: r.Code},
		)
		if r.Exportable {
			perms = append(perms, model.Permission{Code: r.Code + ".export", Name: "Export " + r.Label, Group: r.Code})
		}
	}
	return perms
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := parseID(id, "role")
	if err != nil {
		return nil, err
	}
	role, err := s.repo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, translate(err, "role")
	}
	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if err := knownPermissions(req.Permissions); err != nil {
		return nil, err
	}
	role := model.Role{Name: req.Name, Description: req.Description}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &role); err != nil {
			return translate(err, "role")
		}
		if err := s.repo.ReplacePermissions(txCtx, role.ID, req.Permissions); err != nil {
			return fmt.Errorf("failed to assign permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := parseID(id, "role")
	if err != nil {
		return nil, err
	}
	role, err := s.repo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return nil, translate(err, "role")
	}
	if role.IsSystem && role.Name != req.Name {
		return nil, fieldError("name", "system roles cannot be renamed")
	}

	oldName := role.Name
	role.Name = req.Name
	role.Description = req.Description
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, translate(err, "role")
	}
	s.invalidate(oldName)
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := parseID(id, "role")
	if err != nil {
		return err
	}
	role, err := s.repo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		return translate(err, "role")
	}
	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s': %w", role.Name, ErrConflict)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return translate(s.repo.Delete(txCtx, roleID), "role")
	})
	if err != nil {
		return err
	}
	s.invalidate(role.Name)
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := parseID(roleID, "role")
	if err != nil {
		return nil, err
	}
	if err := knownPermissions(req.Permissions); err != nil {
		return nil, err
	}
	role, err := s.repo.FindByIDWithPermissions(ctx, id)
	if err != nil {
		return nil, translate(err, "role")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.repo.ReplacePermissions(txCtx, id, req.Permissions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}
	s.invalidate(role.Name)
	return s.GetRole(ctx, roleID)
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.repo.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions of role '%s': %w", roleName, err)
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	all := DefaultPermissions()
	allCodes := make([]string, 0, len(all))
	for i := range all {
		if err := s.repo.FindOrCreatePermission(ctx, &all[i]); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", all[i].Code, err)
		}
		allCodes = append(allCodes, all[i].Code)
	}

	// manager gets everything except permanent deletes and access control
	var managerCodes, staffCodes []string
	for _, code := range allCodes {
		switch {
		case code == "roles.manage" || code == "audit.read" || strings.HasPrefix(code, "users."):
		case strings.HasSuffix(code, ".force_delete"):
		default:
			managerCodes = append(managerCodes, code)
			if strings.HasSuffix(code, ".read") || strings.HasSuffix(code, ".write") {
				staffCodes = append(staffCodes, code)
			}
		}
	}

	roleDefinitions := []struct {
		Name        string
		Description string
		PermCodes   []string
	}{
		{model.RoleAdmin, "Administrator with full access", allCodes},
		{"manager", "Runs sales, purchasing and finance", managerCodes},
		{"staff", "Day to day order and customer handling", staffCodes},
	}

	for _, def := range roleDefinitions {
		role, err := s.repo.FindByName(ctx, def.Name)
		if err != nil {
			role = &model.Role{Name: def.Name, Description: def.Description, IsSystem: true}
			if err := s.repo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", def.Name, err)
			}
		}
		if err := s.repo.ReplacePermissions(ctx, role.ID, def.PermCodes); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", def.Name, err)
		}
		s.invalidate(def.Name)
	}
	return nil
}

func (s *roleService) invalidate(role string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateRole(role)
	}
}

// --- Helpers ---

func knownPermissions(codes []string) error {
	known := DefaultPermissions()
	for _, code := range codes {
		if !slices.ContainsFunc(known, func(p model.Permission) bool { return p.Code == code }) {
			return fieldError("permissions", fmt.Sprintf("unknown permission %q", code))
		}
	}
	return nil
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
