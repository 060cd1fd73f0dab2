package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yearbook/internal/model"
)

// Repository persists users and colleges in Postgres. Profile, answers and
// photos are JSONB documents, mirroring the flat keyed records the rest of
// the system expects.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, name, hashed_password, plain_password, user_type,
	COALESCE(college_id, ''), profile, yearbook_answers, photos, profile_completion, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u                              model.User
		profileRaw, answersRaw, photos []byte
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.HashedPassword, &u.PlainPassword,
		&u.UserType, &u.CollegeID, &profileRaw, &answersRaw, &photos,
		&u.ProfileCompletion, &u.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(profileRaw, &u.Profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := json.Unmarshal(answersRaw, &u.YearbookAnswers); err != nil {
		return nil, fmt.Errorf("decode yearbook answers: %w", err)
	}
	if err := json.Unmarshal(photos, &u.Photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	if u.YearbookAnswers == nil {
		u.YearbookAnswers = map[string]string{}
	}
	if u.Photos == nil {
		u.Photos = []model.PhotoSlot{}
	}
	return &u, nil
}

// InsertUser writes a new user record.
func (r *Repository) InsertUser(ctx context.Context, u *model.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return err
	}
	answers, err := json.Marshal(u.YearbookAnswers)
	if err != nil {
		return err
	}
	photos, err := json.Marshal(u.Photos)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, hashed_password, plain_password, user_type,
			college_id, profile, yearbook_answers, photos, profile_completion, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''),$8,$9,$10,$11,$12)
	`, u.ID, u.Email, u.Name, u.HashedPassword, u.PlainPassword, u.UserType,
		u.CollegeID, profile, answers, photos, u.ProfileCompletion, u.CreatedAt)
	return err
}

// FindUserByID returns a user or nil when absent.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindUserByEmail returns a user or nil when absent.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindStudentByID returns a student user or nil when absent or not a student.
func (r *Repository) FindStudentByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND user_type = 'student'`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// EmailExists reports whether any user already has the given email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// ListStudents returns all students, optionally filtered by college.
func (r *Repository) ListStudents(ctx context.Context, collegeID string) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_type = 'student'`
	args := []any{}
	if collegeID != "" {
		query += ` AND college_id = $1`
		args = append(args, collegeID)
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListCollegePeers returns students of a college excluding one user.
func (r *Repository) ListCollegePeers(ctx context.Context, collegeID, excludeID string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE user_type = 'student' AND college_id = $1 AND id <> $2
		ORDER BY created_at
	`, collegeID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetProfile replaces a user's profile document.
func (r *Repository) SetProfile(ctx context.Context, id string, p model.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE users SET profile = $2 WHERE id = $1`, id, raw)
	return err
}

// SetAnswers replaces a user's yearbook answers document.
func (r *Repository) SetAnswers(ctx context.Context, id string, answers map[string]string) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE users SET yearbook_answers = $2 WHERE id = $1`, id, raw)
	return err
}

// SetPhotos replaces a user's photo list.
func (r *Repository) SetPhotos(ctx context.Context, id string, photos []model.PhotoSlot) error {
	raw, err := json.Marshal(photos)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE users SET photos = $2 WHERE id = $1`, id, raw)
	return err
}

// SetCompletion caches a freshly computed completion percentage.
func (r *Repository) SetCompletion(ctx context.Context, id string, pct int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET profile_completion = $2 WHERE id = $1`, id, pct)
	return err
}

// DeleteUser removes a user record, reporting whether a row was deleted.
func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// InsertCollege writes a new college record.
func (r *Repository) InsertCollege(ctx context.Context, c *model.College) error {
	questions, err := json.Marshal(c.YearbookQuestions)
	if err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO colleges (id, name, yearbook_questions, photo_slots, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, c.ID, c.Name, questions, c.PhotoSlots, c.CreatedAt)
	return err
}

// FindCollegeByID returns a college or nil when absent.
func (r *Repository) FindCollegeByID(ctx context.Context, id string) (*model.College, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, yearbook_questions, photo_slots, created_at
		FROM colleges WHERE id = $1
	`, id)
	c, err := scanCollege(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListColleges returns every college.
func (r *Repository) ListColleges(ctx context.Context) ([]*model.College, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, yearbook_questions, photo_slots, created_at
		FROM colleges ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var colleges []*model.College
	for rows.Next() {
		c, err := scanCollege(rows)
		if err != nil {
			return nil, err
		}
		colleges = append(colleges, c)
	}
	return colleges, rows.Err()
}

func scanCollege(row interface{ Scan(...any) error }) (*model.College, error) {
	var (
		c         model.College
		questions []byte
	)
	if err := row.Scan(&c.ID, &c.Name, &questions, &c.PhotoSlots, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &c.YearbookQuestions); err != nil {
		return nil, fmt.Errorf("decode yearbook questions: %w", err)
	}
	return &c, nil
}
