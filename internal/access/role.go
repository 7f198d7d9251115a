package access

import "pam-backend/internal/models"

// Role is the closed enumeration over the role IDs stored on user rows.
// Role numbers are part of the persisted data model and cannot be renumbered.
type Role int

const (
	RoleAdmin             Role = 1
	RoleGeneralManager    Role = 2
	RoleOperations        Role = 3 // procurement office, advances approved requests to PO
	RoleSiteUser          Role = 4
	RoleWarehouseManager  Role = 5
	RoleAccountant        Role = 6
	RoleProjectManager    Role = 7
	RoleOperationsManager Role = 8
	RoleAuditor           Role = 9
	RoleSeniorPM          Role = 10
)

// ScopeClass determines how a role's data visibility is bounded.
type ScopeClass int

const (
	// ScopeNone is the fail-closed default for unknown role numbers.
	ScopeNone ScopeClass = iota
	ScopeAdmin
	ScopeCountry
	ScopeSite
)

var scopeByRole = map[Role]ScopeClass{
	RoleAdmin:             ScopeAdmin,
	RoleGeneralManager:    ScopeCountry,
	RoleOperations:        ScopeCountry,
	RoleAccountant:        ScopeCountry,
	RoleOperationsManager: ScopeCountry,
	RoleAuditor:           ScopeCountry,
	RoleSiteUser:          ScopeSite,
	RoleWarehouseManager:  ScopeSite,
	RoleProjectManager:    ScopeSite,
	RoleSeniorPM:          ScopeSite,
}

// Scope returns the role's scope class, ScopeNone for anything unknown.
func (r Role) Scope() ScopeClass {
	return scopeByRole[r]
}

// capability table; new roles get no capabilities until added here.

// CanIssueStock reports whether the role may perform out-stock operations.
func (r Role) CanIssueStock() bool {
	switch r {
	case RoleSiteUser, RoleWarehouseManager, RoleProjectManager, RoleSeniorPM:
		return true
	}
	return false
}

// CanApproveAsPM reports whether the role gives project-manager approval.
func (r Role) CanApproveAsPM() bool {
	return r == RoleProjectManager || r == RoleSeniorPM
}

// CanAdvanceToPO reports whether the role may move a PM-approved request
// into the purchasing pipeline.
func (r Role) CanAdvanceToPO() bool {
	return r == RoleOperations
}

// CanRejectAt reports whether the role may reject a request in the given
// status: PMs reject pending approvals, operations rejects pending POs.
func (r Role) CanRejectAt(status string) bool {
	switch status {
	case models.StatusPendingApproval:
		return r == RoleProjectManager
	case models.StatusPendingPOs:
		return r == RoleOperations
	}
	return false
}

// CanSendRequests reports whether the role may create material requests.
func (r Role) CanSendRequests() bool {
	switch r {
	case RoleSiteUser, RoleWarehouseManager, RoleProjectManager, RoleOperationsManager:
		return true
	}
	return false
}
