// Package authz is the access policy engine for the village administration
// hierarchy. It follows a simple RBAC model with one extra dimension: a
// kampung scope that narrows what a role may see.
//
// The package is pure policy. It performs no I/O; callers resolve the
// Principal first and pass it in.
package authz

// Role represents a user's position in the administration hierarchy
type Role string

const (
	RoleCitizen         Role = "citizen"          // Villager, may only report
	RoleKetuaKampung    Role = "ketua_kampung"    // Village head, scoped to own kampung
	RolePenghulu        Role = "penghulu"         // Sub-district head, read-only across kampungs
	RoleDistrictOfficer Role = "district_officer" // District office, read + agency assignment
	RoleKplbHQ          Role = "kplbHQ"           // Ministry HQ admin, full control
)

// Action represents an operation that can be performed on a resource
type Action string

const (
	ActionView         Action = "view"
	ActionCreate       Action = "create"
	ActionEditStatus   Action = "edit_status"
	ActionAssignAgency Action = "assign_agency"
	ActionManage       Action = "manage" // Administrative actions (user/announcement CRUD)
)

// Resource represents the type of data being accessed
type Resource string

const (
	ResourceIncidents     Resource = "incidents"
	ResourceVictims       Resource = "victims"
	ResourceUsers         Resource = "users"
	ResourceAnnouncements Resource = "announcements"
	ResourceDashboard     Resource = "dashboard"
)

// Principal is the resolved identity a request acts as. Kampung is nil for
// roles that are not bound to a single village.
type Principal struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	Role     Role    `json:"role"`
	Kampung  *string `json:"kampung,omitempty"`
}

// Permission matrices define what actions each role can perform per resource

var IncidentPermissions = map[Role]map[Action]bool{
	RoleCitizen: {
		ActionCreate: true,
	},
	RoleKetuaKampung: {
		ActionView:       true,
		ActionCreate:     true,
		ActionEditStatus: true,
	},
	RolePenghulu: {
		ActionView: true,
	},
	RoleDistrictOfficer: {
		ActionView:         true,
		ActionAssignAgency: true,
	},
	RoleKplbHQ: {
		ActionView:         true,
		ActionCreate:       true,
		ActionEditStatus:   true,
		ActionAssignAgency: true,
		ActionManage:       true,
	},
}

var VictimPermissions = map[Role]map[Action]bool{
	RoleKetuaKampung: {
		ActionView:   true,
		ActionCreate: true,
	},
	RolePenghulu: {
		ActionView: true,
	},
	RoleKplbHQ: {
		ActionView:   true,
		ActionCreate: true,
		ActionManage: true,
	},
}

var UserPermissions = map[Role]map[Action]bool{
	RoleKplbHQ: {
		ActionView:   true,
		ActionCreate: true,
		ActionManage: true,
	},
}

var AnnouncementPermissions = map[Role]map[Action]bool{
	RoleCitizen:         {ActionView: true},
	RoleKetuaKampung:    {ActionView: true},
	RolePenghulu:        {ActionView: true},
	RoleDistrictOfficer: {ActionView: true},
	RoleKplbHQ: {
		ActionView:   true,
		ActionCreate: true,
		ActionManage: true,
	},
}

var DashboardPermissions = map[Role]map[Action]bool{
	RoleKetuaKampung:    {ActionView: true},
	RolePenghulu:        {ActionView: true},
	RoleDistrictOfficer: {ActionView: true},
	RoleKplbHQ:          {ActionView: true},
}

// permissionsFor maps a resource to its matrix.
func permissionsFor(resource Resource) map[Role]map[Action]bool {
	switch resource {
	case ResourceIncidents:
		return IncidentPermissions
	case ResourceVictims:
		return VictimPermissions
	case ResourceUsers:
		return UserPermissions
	case ResourceAnnouncements:
		return AnnouncementPermissions
	case ResourceDashboard:
		return DashboardPermissions
	}
	return nil
}

// HasPermission checks if a role has permission to perform an action
func HasPermission(permissions map[Role]map[Action]bool, role Role, action Action) bool {
	if rolePerms, ok := permissions[role]; ok {
		if allowed, ok := rolePerms[action]; ok {
			return allowed
		}
	}
	return false
}
