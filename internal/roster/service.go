package roster

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"yearbook/internal/auth"
	"yearbook/internal/completion"
	"yearbook/internal/model"
)

// Sentinel errors mapped to HTTP statuses at the API layer.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNotFound           = errors.New("student not found")
	ErrCollegeNotFound    = errors.New("college not found")
	ErrNoStudents         = errors.New("no students provided for upload")
	ErrNoRowsCreated      = errors.New("no students created")
	ErrNoValidFields      = errors.New("no valid fields to update")
)

// Store is the persistence surface the roster service needs.
type Store interface {
	InsertUser(ctx context.Context, u *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindStudentByID(ctx context.Context, id string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListStudents(ctx context.Context, collegeID string) ([]*model.User, error)
	ListCollegePeers(ctx context.Context, collegeID, excludeID string) ([]*model.User, error)
	SetProfile(ctx context.Context, id string, p model.Profile) error
	SetAnswers(ctx context.Context, id string, answers map[string]string) error
	SetCompletion(ctx context.Context, id string, pct int) error
	DeleteUser(ctx context.Context, id string) (bool, error)
	InsertCollege(ctx context.Context, c *model.College) error
	FindCollegeByID(ctx context.Context, id string) (*model.College, error)
	ListColleges(ctx context.Context) ([]*model.College, error)
}

// TestimonialCleaner removes testimonials tied to a student being deleted.
type TestimonialCleaner interface {
	DeleteForStudent(ctx context.Context, studentID string) error
}

// Service implements account registration, login, college administration and
// student roster management.
type Service struct {
	store        Store
	testimonials TestimonialCleaner
}

// NewService creates a roster service.
func NewService(store Store, testimonials TestimonialCleaner) *Service {
	return &Service{store: store, testimonials: testimonials}
}

// Register creates an account. Email uniqueness is checked before insert; the
// schema's unique constraint backstops the race between the two writes.
func (s *Service) Register(ctx context.Context, email, password, fullName, userType, collegeID string) (*model.User, error) {
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if userType == "" {
		userType = model.RoleStudent
	}

	user := &model.User{
		ID:              uuid.NewString(),
		Email:           email,
		HashedPassword:  hashed,
		UserType:        userType,
		CollegeID:       collegeID,
		Profile:         model.Profile{FullName: fullName},
		YearbookAnswers: map[string]string{},
		Photos:          []model.PhotoSlot{},
	}
	if err := s.store.InsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateCollege registers a new college with its yearbook requirements.
func (s *Service) CreateCollege(ctx context.Context, name string, questions []string, photoSlots int) (*model.College, error) {
	if photoSlots <= 0 {
		photoSlots = 4
	}
	college := &model.College{
		ID:                uuid.NewString(),
		Name:              name,
		YearbookQuestions: questions,
		PhotoSlots:        photoSlots,
	}
	if err := s.store.InsertCollege(ctx, college); err != nil {
		return nil, err
	}
	return college, nil
}

// ListColleges returns every college.
func (s *Service) ListColleges(ctx context.Context) ([]*model.College, error) {
	return s.store.ListColleges(ctx)
}

// BulkRow is one student row in a bulk upload.
type BulkRow struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreatedStudent echoes a created account with its one-time password.
type CreatedStudent struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BulkResult summarizes a bulk upload.
type BulkResult struct {
	Created []CreatedStudent
	Skipped int
}

// BulkCreate provisions student accounts in bulk. Rows missing a trimmed name
// or email, or whose email already exists, are skipped rather than failing
// the batch. Each created account gets a random 12-character password that is
// returned for the admin to hand out.
func (s *Service) BulkCreate(ctx context.Context, collegeID string, rows []BulkRow) (*BulkResult, error) {
	college, err := s.store.FindCollegeByID(ctx, collegeID)
	if err != nil {
		return nil, err
	}
	if college == nil {
		return nil, ErrCollegeNotFound
	}
	if len(rows) == 0 {
		return &BulkResult{Created: []CreatedStudent{}}, ErrNoStudents
	}

	result := &BulkResult{Created: []CreatedStudent{}}
	for i, row := range rows {
		name := strings.TrimSpace(row.Name)
		email := strings.TrimSpace(row.Email)
		phone := strings.TrimSpace(row.Phone)
		if name == "" || email == "" {
			log.Printf("bulk upload: skipping row %d: missing name or email", i)
			result.Skipped++
			continue
		}

		exists, err := s.store.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Printf("bulk upload: student with email %s already exists, skipping", email)
			result.Skipped++
			continue
		}

		password := auth.GeneratePassword(12)
		hashed, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		student := &model.User{
			ID:             uuid.NewString(),
			Email:          email,
			Name:           name,
			HashedPassword: hashed,
			// kept so the admin can re-share it later
			PlainPassword:   password,
			UserType:        model.RoleStudent,
			CollegeID:       collegeID,
			Profile:         model.Profile{FullName: name, Phone: phone},
			YearbookAnswers: map[string]string{},
			Photos:          []model.PhotoSlot{},
		}
		if err := s.store.InsertUser(ctx, student); err != nil {
			// unique-email violation from a concurrent insert lands here
			log.Printf("bulk upload: failed to insert student %s: %v", email, err)
			result.Skipped++
			continue
		}
		result.Created = append(result.Created, CreatedStudent{Name: name, Email: email, Password: password})
	}

	if len(result.Created) == 0 {
		return result, ErrNoRowsCreated
	}
	return result, nil
}

// ListStudents returns students, refreshing each cached completion score on
// the way out.
func (s *Service) ListStudents(ctx context.Context, collegeID string) ([]*model.User, error) {
	students, err := s.store.ListStudents(ctx, collegeID)
	if err != nil {
		return nil, err
	}
	for _, student := range students {
		if student.CollegeID == "" {
			continue
		}
		college, err := s.store.FindCollegeByID(ctx, student.CollegeID)
		if err != nil || college == nil {
			continue
		}
		pct := completion.Score(student, college)
		if err := s.store.SetCompletion(ctx, student.ID, pct); err != nil {
			log.Printf("refresh completion for %s: %v", student.ID, err)
			continue
		}
		student.ProfileCompletion = pct
	}
	return students, nil
}

// StudentDetail returns one student with their college.
func (s *Service) StudentDetail(ctx context.Context, studentID string) (*model.User, *model.College, error) {
	student, err := s.store.FindStudentByID(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, ErrNotFound
	}
	var college *model.College
	if student.CollegeID != "" {
		college, err = s.store.FindCollegeByID(ctx, student.CollegeID)
		if err != nil {
			return nil, nil, err
		}
	}
	return student, college, nil
}

// StudentPatch is an admin edit of a student. Only the profile and yearbook
// answers are writable; everything else is rejected to block privilege
// escalation through arbitrary field injection.
type StudentPatch struct {
	Profile map[string]string `json:"profile"`
	Answers map[string]string `json:"yearbook_answers"`
}

func applyProfilePatch(p *model.Profile, patch map[string]string) {
	for key, value := range patch {
		switch key {
		case "full_name":
			p.FullName = value
		case "nickname":
			p.Nickname = value
		case "phone":
			p.Phone = value
		case "date_of_birth":
			p.DateOfBirth = value
		}
	}
}

// UpdateStudent applies an admin patch and recomputes the completion score.
func (s *Service) UpdateStudent(ctx context.Context, studentID string, patch StudentPatch) error {
	student, err := s.store.FindStudentByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student == nil {
		return ErrNotFound
	}
	if len(patch.Profile) == 0 && patch.Answers == nil {
		return ErrNoValidFields
	}

	if len(patch.Profile) > 0 {
		applyProfilePatch(&student.Profile, patch.Profile)
		if err := s.store.SetProfile(ctx, studentID, student.Profile); err != nil {
			return err
		}
	}
	if patch.Answers != nil {
		student.YearbookAnswers = patch.Answers
		if err := s.store.SetAnswers(ctx, studentID, patch.Answers); err != nil {
			return err
		}
	}

	return s.recompute(ctx, student)
}

// DeleteStudent removes a student and every testimonial they wrote or
// received. The two deletes are independent writes; a crash in between
// leaves orphan-free testimonials but the user intact.
func (s *Service) DeleteStudent(ctx context.Context, studentID string) error {
	student, err := s.store.FindStudentByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student == nil {
		return ErrNotFound
	}
	if err := s.testimonials.DeleteForStudent(ctx, studentID); err != nil {
		return err
	}
	deleted, err := s.store.DeleteUser(ctx, studentID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("failed to delete student %s", studentID)
	}
	return nil
}

// ProfilePatch is a student's partial edit of their own profile. Nil fields
// are left untouched.
type ProfilePatch struct {
	FullName    *string `json:"full_name"`
	Nickname    *string `json:"nickname"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
}

// UpdateProfile merges the patch into the user's profile and recomputes the
// completion score, returning the new percentage.
func (s *Service) UpdateProfile(ctx context.Context, user *model.User, patch ProfilePatch) (int, error) {
	if patch.FullName != nil {
		user.Profile.FullName = *patch.FullName
	}
	if patch.Nickname != nil {
		user.Profile.Nickname = *patch.Nickname
	}
	if patch.Phone != nil {
		user.Profile.Phone = *patch.Phone
	}
	if patch.DateOfBirth != nil {
		user.Profile.DateOfBirth = *patch.DateOfBirth
	}
	if err := s.store.SetProfile(ctx, user.ID, user.Profile); err != nil {
		return 0, err
	}
	if err := s.recompute(ctx, user); err != nil {
		return 0, err
	}
	return user.ProfileCompletion, nil
}

// UpdateAnswers replaces the user's yearbook answers and recomputes the
// completion score, returning the new percentage.
func (s *Service) UpdateAnswers(ctx context.Context, user *model.User, answers map[string]string) (int, error) {
	if answers == nil {
		answers = map[string]string{}
	}
	user.YearbookAnswers = answers
	if err := s.store.SetAnswers(ctx, user.ID, answers); err != nil {
		return 0, err
	}
	if err := s.recompute(ctx, user); err != nil {
		return 0, err
	}
	return user.ProfileCompletion, nil
}

// ProfileView returns the user's college and a freshly computed completion
// score without persisting it.
func (s *Service) ProfileView(ctx context.Context, user *model.User) (*model.College, int, error) {
	if user.CollegeID == "" {
		return nil, 0, nil
	}
	college, err := s.store.FindCollegeByID(ctx, user.CollegeID)
	if err != nil {
		return nil, 0, err
	}
	if college == nil {
		return nil, 0, nil
	}
	return college, completion.Score(user, college), nil
}

// CollegePeers lists the other students at the user's college.
func (s *Service) CollegePeers(ctx context.Context, user *model.User) ([]*model.User, error) {
	return s.store.ListCollegePeers(ctx, user.CollegeID, user.ID)
}

// recompute scores the user against their college and persists the result,
// updating user.ProfileCompletion in place.
func (s *Service) recompute(ctx context.Context, user *model.User) error {
	var college *model.College
	if user.CollegeID != "" {
		var err error
		college, err = s.store.FindCollegeByID(ctx, user.CollegeID)
		if err != nil {
			return err
		}
	}
	pct := completion.Score(user, college)
	if err := s.store.SetCompletion(ctx, user.ID, pct); err != nil {
		return err
	}
	user.ProfileCompletion = pct
	return nil
}
