package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yearbook/internal/auth"
	"yearbook/internal/model"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	users    map[string]*model.User
	colleges map[string]*model.College
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*model.User{},
		colleges: map[string]*model.College{},
	}
}

func (m *memStore) InsertUser(_ context.Context, u *model.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*model.User, error) {
	return m.users[id], nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindStudentByID(_ context.Context, id string) (*model.User, error) {
	u := m.users[id]
	if u == nil || u.UserType != model.RoleStudent {
		return nil, nil
	}
	return u, nil
}

func (m *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	u, _ := m.FindUserByEmail(ctx, email)
	return u != nil, nil
}

func (m *memStore) ListStudents(_ context.Context, collegeID string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range m.users {
		if u.UserType != model.RoleStudent {
			continue
		}
		if collegeID != "" && u.CollegeID != collegeID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) ListCollegePeers(_ context.Context, collegeID, excludeID string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range m.users {
		if u.UserType == model.RoleStudent && u.CollegeID == collegeID && u.ID != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) SetProfile(_ context.Context, id string, p model.Profile) error {
	m.users[id].Profile = p
	return nil
}

func (m *memStore) SetAnswers(_ context.Context, id string, answers map[string]string) error {
	m.users[id].YearbookAnswers = answers
	return nil
}

func (m *memStore) SetCompletion(_ context.Context, id string, pct int) error {
	m.users[id].ProfileCompletion = pct
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *memStore) InsertCollege(_ context.Context, c *model.College) error {
	m.colleges[c.ID] = c
	return nil
}

func (m *memStore) FindCollegeByID(_ context.Context, id string) (*model.College, error) {
	return m.colleges[id], nil
}

func (m *memStore) ListColleges(_ context.Context) ([]*model.College, error) {
	var out []*model.College
	for _, c := range m.colleges {
		out = append(out, c)
	}
	return out, nil
}

type mockCleaner struct {
	deleted []string
}

func (m *mockCleaner) DeleteForStudent(_ context.Context, studentID string) error {
	m.deleted = append(m.deleted, studentID)
	return nil
}

func newTestService() (*Service, *memStore, *mockCleaner) {
	store := newMemStore()
	cleaner := &mockCleaner{}
	return NewService(store, cleaner), store, cleaner
}

func seedCollege(store *memStore, questions, slots int) *model.College {
	c := &model.College{ID: "college-1", Name: "Test College", PhotoSlots: slots}
	for i := 0; i < questions; i++ {
		c.YearbookQuestions = append(c.YearbookQuestions, "q")
	}
	store.colleges[c.ID] = c
	return c
}

func seedStudent(store *memStore, id, collegeID string) *model.User {
	u := &model.User{
		ID:              id,
		Email:           id + "@x.com",
		UserType:        model.RoleStudent,
		CollegeID:       collegeID,
		YearbookAnswers: map[string]string{},
		Photos:          []model.PhotoSlot{},
	}
	store.users[id] = u
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@x.com", "p1", "Ada Lovelace", "", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, user.UserType)
	assert.Equal(t, "Ada Lovelace", user.Profile.FullName)
	assert.True(t, auth.VerifyPassword("p1", user.HashedPassword))

	_, err = svc.Register(ctx, "a@x.com", "p2", "Other", "", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBulkCreate(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 4, 2)

	t.Run("college must exist", func(t *testing.T) {
		_, err := svc.BulkCreate(ctx, "missing", []BulkRow{{Name: "A", Email: "a@x.com"}})
		assert.ErrorIs(t, err, ErrCollegeNotFound)
	})

	t.Run("empty batch", func(t *testing.T) {
		_, err := svc.BulkCreate(ctx, "college-1", nil)
		assert.ErrorIs(t, err, ErrNoStudents)
	})

	t.Run("well-formed rows all create with distinct passwords", func(t *testing.T) {
		rows := []BulkRow{
			{Name: "One", Email: "one@x.com", Phone: "111"},
			{Name: "Two", Email: "two@x.com"},
			{Name: "Three", Email: "three@x.com"},
		}
		result, err := svc.BulkCreate(ctx, "college-1", rows)
		require.NoError(t, err)
		assert.Len(t, result.Created, 3)
		assert.Zero(t, result.Skipped)

		passwords := map[string]bool{}
		for _, created := range result.Created {
			assert.Len(t, created.Password, 12)
			passwords[created.Password] = true
		}
		assert.Len(t, passwords, 3, "passwords must be distinct")

		student, err := store.FindUserByEmail(ctx, "one@x.com")
		require.NoError(t, err)
		require.NotNil(t, student)
		assert.Equal(t, "One", student.Profile.FullName)
		assert.Equal(t, "111", student.Profile.Phone)
		assert.Equal(t, "college-1", student.CollegeID)
		assert.True(t, auth.VerifyPassword(result.Created[0].Password, student.HashedPassword))
	})

	t.Run("malformed and duplicate rows are skipped", func(t *testing.T) {
		rows := []BulkRow{
			{Name: "  ", Email: "blank@x.com"},
			{Name: "NoMail", Email: ""},
			{Name: "Dup", Email: "one@x.com"},
			{Name: "Fresh", Email: "fresh@x.com"},
		}
		result, err := svc.BulkCreate(ctx, "college-1", rows)
		require.NoError(t, err)
		assert.Len(t, result.Created, 1)
		assert.Equal(t, 3, result.Skipped)
	})

	t.Run("nothing created fails the batch", func(t *testing.T) {
		rows := []BulkRow{
			{Name: "Dup", Email: "one@x.com"},
			{Name: "", Email: "x@x.com"},
		}
		result, err := svc.BulkCreate(ctx, "college-1", rows)
		assert.ErrorIs(t, err, ErrNoRowsCreated)
		assert.Equal(t, 2, result.Skipped)
	})
}

func TestUpdateStudent(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 1, 4)
	seedStudent(store, "s1", "college-1")

	t.Run("not found", func(t *testing.T) {
		err := svc.UpdateStudent(ctx, "missing", StudentPatch{Profile: map[string]string{"nickname": "x"}})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no valid fields", func(t *testing.T) {
		err := svc.UpdateStudent(ctx, "s1", StudentPatch{})
		assert.ErrorIs(t, err, ErrNoValidFields)
	})

	t.Run("profile merge and recompute", func(t *testing.T) {
		patch := StudentPatch{
			Profile: map[string]string{
				"full_name":     "Ada Lovelace",
				"nickname":      "Ada",
				"phone":         "555",
				"date_of_birth": "1815-12-10",
				"user_type":     "admin", // not writable
			},
			Answers: map[string]string{"0": "answer"},
		}
		require.NoError(t, svc.UpdateStudent(ctx, "s1", patch))

		student := store.users["s1"]
		assert.Equal(t, "Ada", student.Profile.Nickname)
		assert.Equal(t, model.RoleStudent, student.UserType)
		// full profile + all answers + basic info, photos missing
		assert.Equal(t, 75, student.ProfileCompletion)
	})
}

func TestDeleteStudentCascades(t *testing.T) {
	svc, store, cleaner := newTestService()
	ctx := context.Background()
	seedCollege(store, 1, 1)
	seedStudent(store, "s1", "college-1")

	require.NoError(t, svc.DeleteStudent(ctx, "s1"))
	assert.Equal(t, []string{"s1"}, cleaner.deleted)
	assert.NotContains(t, store.users, "s1")

	err := svc.DeleteStudent(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfilePartialMerge(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 0, 4)
	student := seedStudent(store, "s1", "college-1")
	student.Profile = model.Profile{FullName: "Ada Lovelace", Phone: "555"}

	nickname := "Ada"
	pct, err := svc.UpdateProfile(ctx, student, ProfilePatch{Nickname: &nickname})
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", student.Profile.FullName)
	assert.Equal(t, "Ada", student.Profile.Nickname)
	assert.Equal(t, "555", student.Profile.Phone)
	assert.Empty(t, student.Profile.DateOfBirth)
	// profile still incomplete: answers satisfied (0 questions) + basic info
	assert.Equal(t, 50, pct)
	assert.Equal(t, 50, store.users["s1"].ProfileCompletion)
}

func TestUpdateAnswersRecomputes(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 2, 4)
	student := seedStudent(store, "s1", "college-1")

	pct, err := svc.UpdateAnswers(ctx, student, map[string]string{"0": "a", "1": "b"})
	require.NoError(t, err)
	assert.Equal(t, 50, pct) // answers + basic info
	assert.Equal(t, map[string]string{"0": "a", "1": "b"}, store.users["s1"].YearbookAnswers)
}

func TestListStudentsRefreshesCompletion(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 0, 4)
	student := seedStudent(store, "s1", "college-1")
	student.Profile = model.Profile{FullName: "A", Nickname: "B", Phone: "C", DateOfBirth: "D"}
	student.ProfileCompletion = 0 // stale cache

	students, err := svc.ListStudents(ctx, "")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 75, students[0].ProfileCompletion)
	assert.Equal(t, 75, store.users["s1"].ProfileCompletion)
}

func TestProfileViewDoesNotPersist(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 0, 4)
	student := seedStudent(store, "s1", "college-1")
	student.Profile = model.Profile{FullName: "A", Nickname: "B", Phone: "C", DateOfBirth: "D"}

	college, pct, err := svc.ProfileView(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, "college-1", college.ID)
	assert.Equal(t, 75, pct)
	assert.Zero(t, store.users["s1"].ProfileCompletion, "listing views must not write the score")
}

func TestCollegePeersExcludesSelf(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	seedCollege(store, 0, 4)
	me := seedStudent(store, "me", "college-1")
	seedStudent(store, "peer", "college-1")
	seedStudent(store, "other", "college-2")

	peers, err := svc.CollegePeers(ctx, me)
	require.NoError(t, err)
	require.Len(t, peers, 1)
	assert.Equal(t, "peer", peers[0].ID)
}
