package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/db"
)

type VictimService struct {
	PG *sql.DB
}

func NewVictimService(pg *sql.DB) *VictimService {
	return &VictimService{PG: pg}
}

// List returns victims visible under scope, newest first, each with its
// household members (married victims only) and the username of the account
// that registered it.
func (s *VictimService) List(ctx context.Context, scope authz.ScopeFilter) ([]db.DisasterVictim, error) {
	query := `
		SELECT v.id, v.victim_name, v.ic_number, v.phone_number, v.address, v.marital_status,
			v.disaster_type, v.kampung_name, v.registered_by, u.username, v.notes, v.registered_at
		FROM disaster_victims v
		LEFT JOIN users u ON u.id = v.registered_by`
	args := []interface{}{}

	if scope.Kind == authz.ScopeKampung {
		query += " WHERE v.kampung_name = $1"
		args = append(args, scope.Kampung)
	}

	query += " ORDER BY v.registered_at DESC"

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list victims: %w", err)
	}
	defer rows.Close()

	victims := []db.DisasterVictim{}
	ids := []int64{}
	for rows.Next() {
		var v db.DisasterVictim
		var icNumber, phone, address, notes, registeredByName sql.NullString
		err := rows.Scan(
			&v.ID, &v.VictimName, &icNumber, &phone, &address, &v.MaritalStatus,
			&v.DisasterType, &v.KampungName, &v.RegisteredBy, &registeredByName,
			&notes, &v.RegisteredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan victim: %w", err)
		}
		v.ICNumber = icNumber.String
		v.PhoneNumber = phone.String
		v.Address = address.String
		v.Notes = notes.String
		v.RegisteredByName = registeredByName.String
		victims = append(victims, v)
		if strings.EqualFold(v.MaritalStatus, "married") {
			ids = append(ids, v.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		members, err := s.householdMembers(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range victims {
			victims[i].HouseholdMembers = members[victims[i].ID]
		}
	}
	return victims, nil
}

func (s *VictimService) householdMembers(ctx context.Context, victimIDs []int64) (map[int64][]db.HouseholdMember, error) {
	placeholders := make([]string, len(victimIDs))
	args := make([]interface{}, len(victimIDs))
	for i, id := range victimIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, victim_id, member_name, relationship, ic_number, age
		FROM household_members
		WHERE victim_id IN (%s)
		ORDER BY id`, strings.Join(placeholders, ", "))

	rows, err := s.PG.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list household members: %w", err)
	}
	defer rows.Close()

	members := map[int64][]db.HouseholdMember{}
	for rows.Next() {
		var m db.HouseholdMember
		var relationship, icNumber sql.NullString
		var age sql.NullInt64
		if err := rows.Scan(&m.ID, &m.VictimID, &m.MemberName, &relationship, &icNumber, &age); err != nil {
			return nil, fmt.Errorf("failed to scan household member: %w", err)
		}
		m.Relationship = relationship.String
		m.ICNumber = icNumber.String
		if age.Valid {
			a := int(age.Int64)
			m.Age = &a
		}
		members[m.VictimID] = append(members[m.VictimID], m)
	}
	return members, rows.Err()
}

// Create registers a victim and, when the victim is married, their household
// members, in a single transaction. Any insert failure rolls the whole
// registration back; a victim row never exists with a partial household.
//
// The victim is recorded in the registrar's kampung unless the request names
// one (HQ registering on behalf of a kampung).
func (s *VictimService) Create(ctx context.Context, principal *authz.Principal, req *db.RegisterVictimRequest) (*db.DisasterVictim, error) {
	if req.VictimName == "" || req.MaritalStatus == "" || req.DisasterType == "" {
		return nil, fmt.Errorf("%w: victim_name, marital_status and disaster_type are required", ErrInvalidInput)
	}

	kampung := req.KampungName
	if kampung == "" && principal.Kampung != nil {
		kampung = *principal.Kampung
	}
	if kampung == "" {
		return nil, fmt.Errorf("%w: kampung_name is required", ErrInvalidInput)
	}

	tx, err := s.PG.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	victim := db.DisasterVictim{
		VictimName:    req.VictimName,
		ICNumber:      req.ICNumber,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		MaritalStatus: req.MaritalStatus,
		DisasterType:  req.DisasterType,
		KampungName:   kampung,
		RegisteredBy:  principal.UserID,
		Notes:         req.Notes,
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO disaster_victims (victim_name, ic_number, phone_number, address, marital_status,
			disaster_type, kampung_name, registered_by, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, registered_at`,
		victim.VictimName, victim.ICNumber, victim.PhoneNumber, victim.Address,
		victim.MaritalStatus, victim.DisasterType, victim.KampungName,
		victim.RegisteredBy, victim.Notes,
	).Scan(&victim.ID, &victim.RegisteredAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert victim: %w", err)
	}

	// Household members are only taken for married victims. Entries without
	// a name are skipped, matching the intake form which sends blank rows.
	if strings.EqualFold(victim.MaritalStatus, "married") {
		for _, in := range req.HouseholdMembers {
			if in.MemberName == "" {
				continue
			}
			var m db.HouseholdMember
			m.VictimID = victim.ID
			m.MemberName = in.MemberName
			m.Relationship = in.Relationship
			m.ICNumber = in.ICNumber
			m.Age = in.Age

			err = tx.QueryRowContext(ctx, `
				INSERT INTO household_members (victim_id, member_name, relationship, ic_number, age)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				m.VictimID, m.MemberName, m.Relationship, m.ICNumber, m.Age,
			).Scan(&m.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to insert household member: %w", err)
			}
			victim.HouseholdMembers = append(victim.HouseholdMembers, m)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit victim registration: %w", err)
	}
	return &victim, nil
}
