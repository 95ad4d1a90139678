package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
)

// IncidentIntakeQueue is the Redis list new reports are pushed onto for
// downstream consumers (escalation worker).
const IncidentIntakeQueue = "incidents:intake"

var validIncidentTypes = map[string]bool{
	db.IncidentTypeFlood:     true,
	db.IncidentTypeFire:      true,
	db.IncidentTypeLandslide: true,
	db.IncidentTypeComplaint: true,
	db.IncidentTypeSOS:       true,
}

var validIncidentStatuses = map[string]bool{
	db.IncidentStatusPending:       true,
	db.IncidentStatusInvestigating: true,
	db.IncidentStatusInProgress:    true,
	db.IncidentStatusCritical:      true,
	db.IncidentStatusResolved:      true,
}

type IncidentService struct {
	PG    *sql.DB
	Redis *redis.Client
}

func NewIncidentService(pg *sql.DB, redis *redis.Client) *IncidentService {
	return &IncidentService{PG: pg, Redis: redis}
}

const incidentColumns = `id, type, title, description, status, location, latitude, longitude,
		kampung, reporter_name, reporter_phone, assigned_agency, created_at, updated_at`

func scanIncident(scanner interface{ Scan(...interface{}) error }) (db.Incident, error) {
	var inc db.Incident
	var description, location, reporterName, reporterPhone, assignedAgency sql.NullString
	var lat, lng sql.NullFloat64
	var updatedAt sql.NullTime

	err := scanner.Scan(
		&inc.ID, &inc.Type, &inc.Title, &description, &inc.Status, &location,
		&lat, &lng, &inc.Kampung, &reporterName, &reporterPhone, &assignedAgency,
		&inc.CreatedAt, &updatedAt,
	)
	if err != nil {
		return inc, err
	}

	inc.Description = description.String
	inc.Location = location.String
	inc.ReporterName = reporterName.String
	inc.ReporterPhone = reporterPhone.String
	inc.AssignedAgency = assignedAgency.String
	if lat.Valid {
		inc.Latitude = &lat.Float64
	}
	if lng.Valid {
		inc.Longitude = &lng.Float64
	}
	if updatedAt.Valid {
		inc.UpdatedAt = &updatedAt.Time
	}
	return inc, nil
}

// List returns incidents visible under scope, newest first. Optional filters
// intersect with the scope; under a kampung scope a caller-supplied kampung
// filter is ignored so the scope value always wins.
func (s *IncidentService) List(ctx context.Context, scope authz.ScopeFilter, filters db.IncidentFilters) ([]db.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if scope.Kind == authz.ScopeKampung {
		query += fmt.Sprintf(" AND kampung = $%d", argIndex)
		args = append(args, scope.Kampung)
		argIndex++
	} else if filters.Kampung != "" {
		query += fmt.Sprintf(" AND kampung = $%d", argIndex)
		args = append(args, filters.Kampung)
		argIndex++
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filters.Status)
		argIndex++
	}

	if filters.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, filters.Type)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := []db.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

// Create files a new report. This is the public entry point; no principal is
// required. The new incident starts as pending and is queued for the
// escalation worker.
func (s *IncidentService) Create(ctx context.Context, req *db.CreateIncidentRequest) (*db.Incident, error) {
	if !validIncidentTypes[req.Type] {
		return nil, fmt.Errorf("%w: unknown incident type %q", ErrInvalidInput, req.Type)
	}

	inc := db.Incident{
		Type:          req.Type,
		Title:         req.Title,
		Description:   req.Description,
		Status:        db.IncidentStatusPending,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Kampung:       req.Kampung,
		ReporterName:  req.ReporterName,
		ReporterPhone: req.ReporterPhone,
	}

	err := s.PG.QueryRowContext(ctx, `
		INSERT INTO incidents (type, title, description, status, location, latitude, longitude,
			kampung, reporter_name, reporter_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		inc.Type, inc.Title, inc.Description, inc.Status, inc.Location,
		inc.Latitude, inc.Longitude, inc.Kampung, inc.ReporterName, inc.ReporterPhone,
	).Scan(&inc.ID, &inc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}

	s.enqueue(ctx, &inc)

	return &inc, nil
}

// enqueue pushes the incident onto the intake queue. Queue failures are
// logged, not returned; the report is already persisted.
func (s *IncidentService) enqueue(ctx context.Context, inc *db.Incident) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(inc)
	if err != nil {
		log.Printf("WARNING: failed to marshal incident %d for queue: %v", inc.ID, err)
		return
	}
	if err := s.Redis.RPush(ctx, IncidentIntakeQueue, payload).Err(); err != nil {
		log.Printf("WARNING: failed to enqueue incident %d: %v", inc.ID, err)
	}
}

// UpdateStatus writes a new status for one incident. The scope travels into
// the WHERE clause, so a kampung-scoped caller cannot touch rows outside
// their kampung even when they know the ID: the update simply matches zero
// rows and the caller gets updated=false instead of an error. Writing the
// status the row already has also reports updated=false.
func (s *IncidentService) UpdateStatus(ctx context.Context, scope authz.ScopeFilter, id int64, status string) (bool, error) {
	if !validIncidentStatuses[status] {
		return false, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	query := `UPDATE incidents SET status = $1, updated_at = NOW() WHERE id = $2 AND status <> $1`
	args := []interface{}{status, id}

	if scope.Kind == authz.ScopeKampung {
		query += " AND kampung = $3"
		args = append(args, scope.Kampung)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update incident status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// AssignAgency records the external agency handling an incident. District
// officers hold this right without the right to change status.
func (s *IncidentService) AssignAgency(ctx context.Context, scope authz.ScopeFilter, id int64, agency string) (bool, error) {
	if agency == "" {
		return false, fmt.Errorf("%w: agency is required", ErrInvalidInput)
	}

	query := `UPDATE incidents SET assigned_agency = $1, updated_at = NOW() WHERE id = $2`
	args := []interface{}{agency, id}

	if scope.Kind == authz.ScopeKampung {
		query += " AND kampung = $3"
		args = append(args, scope.Kampung)
	}

	result, err := s.PG.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to assign agency: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// SummaryByKampung rolls incidents up per kampung for the district view.
func (s *IncidentService) SummaryByKampung(ctx context.Context) ([]db.KampungSummary, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT kampung,
			COUNT(*) AS total,
			COUNT(CASE WHEN status = 'critical' THEN 1 END) AS critical,
			COUNT(CASE WHEN status = 'in_progress' THEN 1 END) AS in_progress,
			COUNT(CASE WHEN status = 'resolved' THEN 1 END) AS resolved
		FROM incidents
		GROUP BY kampung
		ORDER BY total DESC, kampung ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize incidents by kampung: %w", err)
	}
	defer rows.Close()

	summaries := []db.KampungSummary{}
	for rows.Next() {
		var s db.KampungSummary
		if err := rows.Scan(&s.Kampung, &s.Total, &s.Critical, &s.InProgress, &s.Resolved); err != nil {
			return nil, fmt.Errorf("failed to scan kampung summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
