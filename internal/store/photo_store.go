package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vbonduro/kissthem/internal/domain"
)

// timeLayout is fixed width so that created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const photoColumns = `id, user_id, user_email, user_name, original_id, generated_id,
	original_url, generated_url, photo_name, prompt, ai_response, created_at, updated_at`

type PhotoStore struct {
	db *sql.DB
}

func NewPhotoStore(db *sql.DB) *PhotoStore {
	return &PhotoStore{db: db}
}

// Save inserts p, replacing any record with the same ID.
func (s *PhotoStore) Save(ctx context.Context, p *domain.Photo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO photos (`+photoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.UserID, p.UserEmail, p.UserName, p.OriginalID, nullString(p.GeneratedID),
		p.OriginalURL, nullString(p.GeneratedURL), p.PhotoName, p.Prompt, p.AIResponse,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}
	return nil
}

func (s *PhotoStore) Get(ctx context.Context, id string) (*domain.Photo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	photo, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return photo, nil
}

// ListByUser returns the user's photos, newest first.
func (s *PhotoStore) ListByUser(ctx context.Context, userID string) ([]*domain.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+photoColumns+` FROM photos
		WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	photos := []*domain.Photo{}
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate photos: %w", err)
	}
	return photos, nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(sc scanner) (*domain.Photo, error) {
	var (
		p                    domain.Photo
		generatedID, genURL  sql.NullString
		createdAt, updatedAt string
	)
	err := sc.Scan(&p.ID, &p.UserID, &p.UserEmail, &p.UserName, &p.OriginalID, &generatedID,
		&p.OriginalURL, &genURL, &p.PhotoName, &p.Prompt, &p.AIResponse, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if generatedID.Valid {
		p.GeneratedID = &generatedID.String
	}
	if genURL.Valid {
		p.GeneratedURL = &genURL.String
	}
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}
	return &p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
