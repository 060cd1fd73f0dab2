package testimonial

import (
	"context"
	"errors"
	"strings"
	"time"

	"yearbook/internal/model"
)

// MaxWords is the testimonial length limit.
const MaxWords = 30

// Sentinel errors mapped to HTTP statuses at the API layer.
var (
	ErrTooLong         = errors.New("testimonial exceeds word limit")
	ErrEmpty           = errors.New("testimonial cannot be empty")
	ErrStudentNotFound = errors.New("student not found")
	ErrCrossCollege    = errors.New("can only write testimonials for students in your college")
	ErrNotFound        = errors.New("testimonial not found")
)

// Store is the persistence surface the testimonial service needs.
type Store interface {
	Find(ctx context.Context, fromID, toID string) (*model.Testimonial, error)
	Insert(ctx context.Context, t *model.Testimonial) error
	UpdateText(ctx context.Context, fromID, toID, text string, wordCount int) (bool, error)
	ListReceived(ctx context.Context, toID string) ([]*model.Testimonial, error)
	ListWritten(ctx context.Context, fromID string) ([]*model.Testimonial, error)
	Delete(ctx context.Context, fromID, toID string) (bool, error)
}

// StudentFinder resolves testimonial targets.
type StudentFinder interface {
	FindStudentByID(ctx context.Context, id string) (*model.User, error)
}

// Service implements testimonial writing and administration.
type Service struct {
	store    Store
	students StudentFinder
}

// NewService creates a testimonial service.
func NewService(store Store, students StudentFinder) *Service {
	return &Service{store: store, students: students}
}

// CountWords counts whitespace-separated words after trimming.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// WriteResult reports the outcome of a student writing a testimonial.
type WriteResult struct {
	WordCount int
	Updated   bool
}

// Write creates a testimonial, or overwrites the author's earlier one for the
// same target. The target must exist and belong to the author's college; the
// cross-college check only runs here, never again on later edits.
func (s *Service) Write(ctx context.Context, author *model.User, toID, text string) (WriteResult, error) {
	wordCount := CountWords(text)
	if wordCount > MaxWords {
		return WriteResult{WordCount: wordCount}, ErrTooLong
	}
	if wordCount < 1 {
		return WriteResult{}, ErrEmpty
	}

	target, err := s.students.FindStudentByID(ctx, toID)
	if err != nil {
		return WriteResult{}, err
	}
	if target == nil {
		return WriteResult{}, ErrStudentNotFound
	}
	if target.CollegeID != author.CollegeID {
		return WriteResult{}, ErrCrossCollege
	}

	existing, err := s.store.Find(ctx, author.ID, toID)
	if err != nil {
		return WriteResult{}, err
	}
	if existing != nil {
		if _, err := s.store.UpdateText(ctx, author.ID, toID, text, wordCount); err != nil {
			return WriteResult{}, err
		}
		return WriteResult{WordCount: wordCount, Updated: true}, nil
	}

	now := time.Now().UTC()
	t := &model.Testimonial{
		FromStudentID:   author.ID,
		FromStudentName: author.Name,
		ToStudentID:     toID,
		Text:            text,
		WordCount:       wordCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Insert(ctx, t); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{WordCount: wordCount}, nil
}

// Received returns testimonials written for the student.
func (s *Service) Received(ctx context.Context, studentID string) ([]*model.Testimonial, error) {
	return s.store.ListReceived(ctx, studentID)
}

// Written returns testimonials the student wrote.
func (s *Service) Written(ctx context.Context, studentID string) ([]*model.Testimonial, error) {
	return s.store.ListWritten(ctx, studentID)
}

// AdminUpdate rewrites a testimonial by its composite key. The word count is
// re-validated only when new text is supplied.
func (s *Service) AdminUpdate(ctx context.Context, fromID, toID string, text *string) (int, error) {
	if text == nil {
		existing, err := s.store.Find(ctx, fromID, toID)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, ErrNotFound
		}
		return existing.WordCount, nil
	}

	trimmed := strings.TrimSpace(*text)
	wordCount := CountWords(trimmed)
	if wordCount > MaxWords {
		return wordCount, ErrTooLong
	}
	if wordCount < 1 {
		return 0, ErrEmpty
	}

	matched, err := s.store.UpdateText(ctx, fromID, toID, trimmed, wordCount)
	if err != nil {
		return 0, err
	}
	if !matched {
		return 0, ErrNotFound
	}
	return wordCount, nil
}

// AdminDelete removes a testimonial by its composite key.
func (s *Service) AdminDelete(ctx context.Context, fromID, toID string) error {
	deleted, err := s.store.Delete(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}
