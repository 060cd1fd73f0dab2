package photo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yearbook/internal/model"
)

type fakeUserStore struct {
	photos      map[string][]model.PhotoSlot
	completions map[string]int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		photos:      map[string][]model.PhotoSlot{},
		completions: map[string]int{},
	}
}

func (f *fakeUserStore) FindUserByID(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserStore) SetPhotos(_ context.Context, id string, photos []model.PhotoSlot) error {
	f.photos[id] = photos
	return nil
}

func (f *fakeUserStore) SetCompletion(_ context.Context, id string, pct int) error {
	f.completions[id] = pct
	return nil
}

type fakeColleges struct {
	college *model.College
}

func (f *fakeColleges) FindCollegeByID(_ context.Context, _ string) (*model.College, error) {
	return f.college, nil
}

// stubStorage is a remote backend with a scripted outcome.
type stubStorage struct {
	stored *Stored
	err    error
	calls  int
}

func (s *stubStorage) Store(_ context.Context, _ string, _ int, _ []byte, _, _ string) (*Stored, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.stored, nil
}

func student() *model.User {
	return &model.User{
		ID:        "s1",
		UserType:  model.RoleStudent,
		CollegeID: "college-1",
		Profile:   model.Profile{FullName: "A", Nickname: "B", Phone: "C", DateOfBirth: "D"},
		Photos:    []model.PhotoSlot{},
	}
}

func TestUploadUsesRemoteWhenAvailable(t *testing.T) {
	users := newFakeUserStore()
	remote := &stubStorage{stored: &Stored{FileID: "drive-id", FileURL: "https://drive/view"}}
	svc := NewService(remote, users, &fakeColleges{college: &model.College{ID: "college-1", PhotoSlots: 1}})

	result, err := svc.Upload(context.Background(), student(), 0, []byte("jpegdata"), "image/jpeg", "me.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, "https://drive/view", result.FileURL)

	photos := users.photos["s1"]
	require.Len(t, photos, 1)
	assert.Equal(t, "drive-id", photos[0].FileID)
	assert.Equal(t, "me.jpg", photos[0].Filename)
}

func TestUploadFallsBackInline(t *testing.T) {
	cases := []struct {
		name   string
		remote Storage
	}{
		{"no remote configured", nil},
		{"user not connected", &stubStorage{err: ErrNotConnected}},
		{"remote failure", &stubStorage{err: errors.New("drive exploded")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newFakeUserStore()
			svc := NewService(tc.remote, users, &fakeColleges{college: &model.College{ID: "college-1", PhotoSlots: 1}})

			result, err := svc.Upload(context.Background(), student(), 0, []byte("jpegdata"), "image/jpeg", "me.jpg")
			require.NoError(t, err, "remote failure must never surface")
			assert.True(t, strings.HasPrefix(result.FileURL, "data:image/jpeg;base64,"))

			photos := users.photos["s1"]
			require.Len(t, photos, 1)
			assert.NotEmpty(t, photos[0].FileID)
		})
	}
}

func TestUploadReplacesSlot(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(nil, users, &fakeColleges{college: &model.College{ID: "college-1", PhotoSlots: 4}})
	user := student()
	ctx := context.Background()

	_, err := svc.Upload(ctx, user, 0, []byte("first"), "image/png", "a.png")
	require.NoError(t, err)
	_, err = svc.Upload(ctx, user, 1, []byte("second"), "image/png", "b.png")
	require.NoError(t, err)
	_, err = svc.Upload(ctx, user, 0, []byte("third"), "image/png", "c.png")
	require.NoError(t, err)

	require.Len(t, user.Photos, 2, "re-uploading a slot must replace, not append")
	slot0 := user.PhotoAt(0)
	require.NotNil(t, slot0)
	assert.Equal(t, "c.png", slot0.Filename)
	slot1 := user.PhotoAt(1)
	require.NotNil(t, slot1)
	assert.Equal(t, "b.png", slot1.Filename)
}

func TestUploadRecomputesCompletion(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(nil, users, &fakeColleges{college: &model.College{ID: "college-1", PhotoSlots: 1}})
	user := student()

	result, err := svc.Upload(context.Background(), user, 0, []byte("x"), "image/png", "a.png")
	require.NoError(t, err)
	// full profile + answers satisfied + photos full + basic info
	assert.Equal(t, 100, result.ProfileCompletion)
	assert.Equal(t, 100, users.completions["s1"])
	assert.Equal(t, 100, user.ProfileCompletion)
}

func TestUploadWithoutCollegeSkipsScore(t *testing.T) {
	users := newFakeUserStore()
	svc := NewService(nil, users, &fakeColleges{})
	user := student()
	user.CollegeID = ""

	result, err := svc.Upload(context.Background(), user, 0, []byte("x"), "image/png", "a.png")
	require.NoError(t, err)
	assert.Zero(t, result.ProfileCompletion)
	assert.NotContains(t, users.completions, "s1")
}
