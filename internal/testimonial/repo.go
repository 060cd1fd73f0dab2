package testimonial

import (
	"context"
	"database/sql"
	"errors"

	"yearbook/internal/model"
)

// Repository persists testimonials in Postgres, keyed by the ordered
// (from_student_id, to_student_id) pair.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const columns = `from_student_id, from_student_name, to_student_id, text, word_count, created_at, updated_at`

func scan(row interface{ Scan(...any) error }) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := row.Scan(&t.FromStudentID, &t.FromStudentName, &t.ToStudentID,
		&t.Text, &t.WordCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Find returns the testimonial for an ordered pair, or nil.
func (r *Repository) Find(ctx context.Context, fromID, toID string) (*model.Testimonial, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+columns+` FROM testimonials
		WHERE from_student_id = $1 AND to_student_id = $2
	`, fromID, toID)
	t, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// Insert writes a new testimonial.
func (r *Repository) Insert(ctx context.Context, t *model.Testimonial) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO testimonials (from_student_id, from_student_name, to_student_id, text, word_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, t.FromStudentID, t.FromStudentName, t.ToStudentID, t.Text, t.WordCount, t.CreatedAt, t.UpdatedAt)
	return err
}

// UpdateText overwrites the text, word count and updated timestamp of an
// existing testimonial, reporting whether a row matched.
func (r *Repository) UpdateText(ctx context.Context, fromID, toID, text string, wordCount int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE testimonials
		SET text = $3, word_count = $4, updated_at = NOW()
		WHERE from_student_id = $1 AND to_student_id = $2
	`, fromID, toID, text, wordCount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListReceived returns testimonials written for a student.
func (r *Repository) ListReceived(ctx context.Context, toID string) ([]*model.Testimonial, error) {
	return r.list(ctx, `SELECT `+columns+` FROM testimonials WHERE to_student_id = $1 ORDER BY created_at`, toID)
}

// ListWritten returns testimonials a student wrote.
func (r *Repository) ListWritten(ctx context.Context, fromID string) ([]*model.Testimonial, error) {
	return r.list(ctx, `SELECT `+columns+` FROM testimonials WHERE from_student_id = $1 ORDER BY created_at`, fromID)
}

func (r *Repository) list(ctx context.Context, query, arg string) ([]*model.Testimonial, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Testimonial
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes one testimonial, reporting whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, fromID, toID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM testimonials WHERE from_student_id = $1 AND to_student_id = $2
	`, fromID, toID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteForStudent removes every testimonial the student wrote or received.
// Used by the roster cascade when a student account is deleted.
func (r *Repository) DeleteForStudent(ctx context.Context, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM testimonials WHERE from_student_id = $1 OR to_student_id = $1
	`, studentID)
	return err
}
