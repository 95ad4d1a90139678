package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kampungalert/api/db"
)

var validAnnouncementTypes = map[string]bool{
	db.AnnouncementTypeInfo:    true,
	db.AnnouncementTypeWarning: true,
	db.AnnouncementTypeUrgent:  true,
	db.AnnouncementTypeSuccess: true,
}

type AnnouncementService struct {
	PG *sql.DB
}

func NewAnnouncementService(pg *sql.DB) *AnnouncementService {
	return &AnnouncementService{PG: pg}
}

// List is public: announcements are broadcast to everyone in the village.
func (s *AnnouncementService) List(ctx context.Context) ([]db.Announcement, error) {
	rows, err := s.PG.QueryContext(ctx, `
		SELECT id, title, message, type, date, created_at
		FROM announcements ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list announcements: %w", err)
	}
	defer rows.Close()

	announcements := []db.Announcement{}
	for rows.Next() {
		var a db.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &a.Type, &a.Date, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func parseAnnouncementDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return date, nil
}

func (s *AnnouncementService) Create(ctx context.Context, req *db.AnnouncementRequest) (*db.Announcement, error) {
	if !validAnnouncementTypes[req.Type] {
		return nil, fmt.Errorf("%w: unknown announcement type %q", ErrInvalidInput, req.Type)
	}
	date, err := parseAnnouncementDate(req.Date)
	if err != nil {
		return nil, err
	}

	a := db.Announcement{Title: req.Title, Message: req.Message, Type: req.Type, Date: date}
	err = s.PG.QueryRowContext(ctx, `
		INSERT INTO announcements (title, message, type, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.Title, a.Message, a.Type, a.Date,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}
	return &a, nil
}

func (s *AnnouncementService) Update(ctx context.Context, id int64, req *db.AnnouncementRequest) error {
	if !validAnnouncementTypes[req.Type] {
		return fmt.Errorf("%w: unknown announcement type %q", ErrInvalidInput, req.Type)
	}
	date, err := parseAnnouncementDate(req.Date)
	if err != nil {
		return err
	}

	result, err := s.PG.ExecContext(ctx, `
		UPDATE announcements SET title = $1, message = $2, type = $3, date = $4
		WHERE id = $5`,
		req.Title, req.Message, req.Type, date, id)
	if err != nil {
		return fmt.Errorf("failed to update announcement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *AnnouncementService) Delete(ctx context.Context, id int64) error {
	result, err := s.PG.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete announcement: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
