package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
)

type DashboardService struct {
	PG *sql.DB
}

func NewDashboardService(pg *sql.DB) *DashboardService {
	return &DashboardService{PG: pg}
}

// Summary computes the dashboard aggregates visible under scope. One code
// path serves all roles; the scope alone decides whether the numbers cover
// one kampung or the whole district. An unrestricted caller may narrow to a
// single kampung with the kampung argument, a scoped caller cannot widen.
func (s *DashboardService) Summary(ctx context.Context, scope authz.ScopeFilter, kampung string) (*db.DashboardSummary, error) {
	var filterKampung string
	switch {
	case scope.Kind == authz.ScopeKampung:
		filterKampung = scope.Kampung
	case kampung != "":
		filterKampung = kampung
	}

	incidentWhere := ""
	victimWhere := ""
	args := []interface{}{}
	if filterKampung != "" {
		incidentWhere = " WHERE kampung = $1"
		victimWhere = " WHERE kampung_name = $1"
		args = append(args, filterKampung)
	}

	summary := &db.DashboardSummary{
		ByType:           map[string]int{},
		ByStatus:         map[string]int{},
		VictimsByType:    map[string]int{},
		VictimsByMarital: map[string]int{},
	}

	err := s.PG.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(CASE WHEN type = 'complaint' THEN 1 END)
		FROM incidents`+incidentWhere, args...).
		Scan(&summary.TotalIncidents, &summary.TotalComplaints)
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents: %w", err)
	}

	// total_affected = victims + household members of those victims
	err = s.PG.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) + COALESCE((
				SELECT COUNT(*) FROM household_members m
				WHERE m.victim_id IN (SELECT v.id FROM disaster_victims v`+victimWhere+`)
			), 0)
		FROM disaster_victims`+victimWhere, args...).
		Scan(&summary.TotalVictims, &summary.TotalAffected)
	if err != nil {
		return nil, fmt.Errorf("failed to count victims: %w", err)
	}

	if err := s.groupCount(ctx, "incidents", "type", incidentWhere, args, summary.ByType); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "incidents", "status", incidentWhere, args, summary.ByStatus); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "disaster_victims", "disaster_type", victimWhere, args, summary.VictimsByType); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, "disaster_victims", "marital_status", victimWhere, args, summary.VictimsByMarital); err != nil {
		return nil, err
	}

	recent, err := s.recentIncidents(ctx, incidentWhere, args)
	if err != nil {
		return nil, err
	}
	summary.RecentIncidents = recent

	recentVictims, err := s.recentVictims(ctx, victimWhere, args)
	if err != nil {
		return nil, err
	}
	summary.RecentVictims = recentVictims

	return summary, nil
}

func (s *DashboardService) groupCount(ctx context.Context, table, column, where string, args []interface{}, into map[string]int) error {
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s%s GROUP BY %s", column, table, where, column)
	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to group %s by %s: %w", table, column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s group: %w", column, err)
		}
		into[key] = count
	}
	return rows.Err()
}

func (s *DashboardService) recentIncidents(ctx context.Context, where string, args []interface{}) ([]db.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents` + where + ` ORDER BY created_at DESC LIMIT 10`
	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent incidents: %w", err)
	}
	defer rows.Close()

	incidents := []db.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

func (s *DashboardService) recentVictims(ctx context.Context, where string, args []interface{}) ([]db.DisasterVictim, error) {
	query := `
		SELECT id, victim_name, marital_status, disaster_type, kampung_name, registered_at
		FROM disaster_victims` + where + `
		ORDER BY registered_at DESC LIMIT 10`
	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent victims: %w", err)
	}
	defer rows.Close()

	victims := []db.DisasterVictim{}
	for rows.Next() {
		var v db.DisasterVictim
		if err := rows.Scan(&v.ID, &v.VictimName, &v.MaritalStatus, &v.DisasterType, &v.KampungName, &v.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent victim: %w", err)
		}
		victims = append(victims, v)
	}
	return victims, rows.Err()
}
