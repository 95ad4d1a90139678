package db

import "time"

// ===========================
// INCIDENT MODELS
// ===========================

// Incident types reported by villagers.
const (
	IncidentTypeFlood     = "flood"
	IncidentTypeFire      = "fire"
	IncidentTypeLandslide = "landslide"
	IncidentTypeComplaint = "complaint"
	IncidentTypeSOS       = "sos"
)

// Incident lifecycle statuses. There is no enforced transition order;
// any status may be written over any other.
const (
	IncidentStatusPending       = "pending"
	IncidentStatusInvestigating = "investigating"
	IncidentStatusInProgress    = "in_progress"
	IncidentStatusCritical      = "critical"
	IncidentStatusResolved      = "resolved"
)

// Incident represents a single report filed by a villager.
type Incident struct {
	ID             int64      `json:"id"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status"`
	Location       string     `json:"location,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	Kampung        string     `json:"kampung"`
	ReporterName   string     `json:"reporter_name,omitempty"`
	ReporterPhone  string     `json:"reporter_phone,omitempty"`
	AssignedAgency string     `json:"assigned_agency,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// CreateIncidentRequest is the public reporting payload. Reporters are not
// required to hold an account, so identity fields travel in the body.
type CreateIncidentRequest struct {
	Type          string   `json:"type" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Kampung       string   `json:"kampung" binding:"required"`
	ReporterName  string   `json:"reporter_name"`
	ReporterPhone string   `json:"reporter_phone"`
}

// IncidentFilters narrows listIncidents. Filters only ever intersect with the
// caller's scope; a kampung filter can never widen a kampung-scoped view.
type IncidentFilters struct {
	Status  string
	Type    string
	Kampung string
}

// KampungSummary is one row of the district rollup table.
type KampungSummary struct {
	Kampung    string `json:"kampung"`
	Total      int    `json:"total"`
	Critical   int    `json:"critical"`
	InProgress int    `json:"in_progress"`
	Resolved   int    `json:"resolved"`
}

// ===========================
// VICTIM MODELS
// ===========================

// DisasterVictim is a registered victim record. Household members are only
// collected when the victim is married.
type DisasterVictim struct {
	ID               int64             `json:"id"`
	VictimName       string            `json:"victim_name"`
	ICNumber         string            `json:"ic_number,omitempty"`
	PhoneNumber      string            `json:"phone_number,omitempty"`
	Address          string            `json:"address,omitempty"`
	MaritalStatus    string            `json:"marital_status"`
	DisasterType     string            `json:"disaster_type"`
	KampungName      string            `json:"kampung_name"`
	RegisteredBy     int64             `json:"registered_by"`
	RegisteredByName string            `json:"registered_by_name,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	RegisteredAt     time.Time         `json:"registered_at"`
	HouseholdMembers []HouseholdMember `json:"household_members,omitempty"`
}

// HouseholdMember belongs to exactly one victim and is removed with it.
type HouseholdMember struct {
	ID           int64  `json:"id"`
	VictimID     int64  `json:"victim_id"`
	MemberName   string `json:"member_name"`
	Relationship string `json:"relationship,omitempty"`
	ICNumber     string `json:"ic_number,omitempty"`
	Age          *int   `json:"age,omitempty"`
}

type HouseholdMemberInput struct {
	MemberName   string `json:"member_name"`
	Relationship string `json:"relationship"`
	ICNumber     string `json:"ic_number"`
	Age          *int   `json:"age"`
}

type RegisterVictimRequest struct {
	VictimName       string                 `json:"victim_name" binding:"required"`
	ICNumber         string                 `json:"ic_number"`
	PhoneNumber      string                 `json:"phone_number"`
	Address          string                 `json:"address"`
	MaritalStatus    string                 `json:"marital_status" binding:"required"`
	DisasterType     string                 `json:"disaster_type" binding:"required"`
	KampungName      string                 `json:"kampung_name"`
	Notes            string                 `json:"notes"`
	HouseholdMembers []HouseholdMemberInput `json:"household_members"`
}

// ===========================
// USER MODELS
// ===========================

// User is an administrative account. Villagers reporting incidents do not
// have user rows; only the administration hierarchy does.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	KampungName  *string   `json:"kampung_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role" binding:"required"`
	KampungName string `json:"kampung_name"`
}

type UpdateUserRequest struct {
	Password    *string `json:"password,omitempty"`
	Role        *string `json:"role,omitempty"`
	KampungName *string `json:"kampung_name,omitempty"`
}

// ===========================
// ANNOUNCEMENT MODELS
// ===========================

const (
	AnnouncementTypeInfo    = "info"
	AnnouncementTypeWarning = "warning"
	AnnouncementTypeUrgent  = "urgent"
	AnnouncementTypeSuccess = "success"
)

type Announcement struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

type AnnouncementRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Date    string `json:"date"`
}

// ===========================
// DASHBOARD MODELS
// ===========================

// DashboardSummary is the aggregate view served to every dashboard role.
// TotalAffected counts victims plus the household members of those victims.
type DashboardSummary struct {
	TotalIncidents   int              `json:"total_incidents"`
	TotalComplaints  int              `json:"total_complaints"`
	TotalVictims     int              `json:"total_victims"`
	TotalAffected    int              `json:"total_affected"`
	ByType           map[string]int   `json:"by_type"`
	ByStatus         map[string]int   `json:"by_status"`
	VictimsByType    map[string]int   `json:"victims_by_type"`
	VictimsByMarital map[string]int   `json:"victims_by_marital_status"`
	RecentIncidents  []Incident       `json:"recent"`
	RecentVictims    []DisasterVictim `json:"recent_victims"`
}
