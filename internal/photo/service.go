package photo

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yearbook/internal/completion"
	"yearbook/internal/model"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yearbook_photo_uploads_total",
		Help: "Photo uploads by storage backend.",
	}, []string{"backend"})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yearbook_photo_storage_fallbacks_total",
		Help: "Remote storage failures downgraded to inline storage.",
	})
)

// UserStore is the slice of user persistence the upload pipeline needs.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	SetPhotos(ctx context.Context, id string, photos []model.PhotoSlot) error
	SetCompletion(ctx context.Context, id string, pct int) error
}

// CollegeFinder resolves a user's college for the completion recompute.
type CollegeFinder interface {
	FindCollegeByID(ctx context.Context, id string) (*model.College, error)
}

// Service runs the upload pipeline: try remote storage, fall back to inline
// encoding, replace the slot, recompute completion.
type Service struct {
	remote   Storage
	inline   Storage
	users    UserStore
	colleges CollegeFinder
}

// NewService creates the pipeline. remote may be nil when cloud storage is
// not configured at all.
func NewService(remote Storage, users UserStore, colleges CollegeFinder) *Service {
	return &Service{
		remote:   remote,
		inline:   InlineStorage{},
		users:    users,
		colleges: colleges,
	}
}

// Result is what the caller gets back from an upload.
type Result struct {
	FileURL           string
	ProfileCompletion int
}

// Upload stores the photo and installs it in the user's slot. Remote failure
// is logged and silently downgraded to the inline fallback; it is never
// surfaced to the caller.
func (s *Service) Upload(ctx context.Context, user *model.User, slotIndex int, data []byte, contentType, filename string) (*Result, error) {
	stored, backend := s.store(ctx, user.ID, slotIndex, data, contentType, filename)
	uploadsTotal.WithLabelValues(backend).Inc()

	// Replace whatever occupies the slot; other slots keep their entries but
	// not necessarily their order.
	photos := make([]model.PhotoSlot, 0, len(user.Photos)+1)
	for _, p := range user.Photos {
		if p.SlotIndex != slotIndex {
			photos = append(photos, p)
		}
	}
	photos = append(photos, model.PhotoSlot{
		SlotIndex:  slotIndex,
		FileID:     stored.FileID,
		FileURL:    stored.FileURL,
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
	})

	if err := s.users.SetPhotos(ctx, user.ID, photos); err != nil {
		return nil, err
	}
	user.Photos = photos

	pct := 0
	if user.CollegeID != "" {
		college, err := s.colleges.FindCollegeByID(ctx, user.CollegeID)
		if err != nil {
			return nil, err
		}
		pct = completion.Score(user, college)
		if err := s.users.SetCompletion(ctx, user.ID, pct); err != nil {
			return nil, err
		}
		user.ProfileCompletion = pct
	}

	return &Result{FileURL: stored.FileURL, ProfileCompletion: pct}, nil
}

// store attempts the remote backend once, then falls back to inline encoding.
func (s *Service) store(ctx context.Context, userID string, slotIndex int, data []byte, contentType, filename string) (*Stored, string) {
	if s.remote != nil {
		stored, err := s.remote.Store(ctx, userID, slotIndex, data, contentType, filename)
		if err == nil {
			return stored, "drive"
		}
		if err != ErrNotConnected {
			log.Printf("drive upload failed, using inline storage: %v", err)
			fallbacksTotal.Inc()
		}
	}
	// inline storage cannot fail
	stored, _ := s.inline.Store(ctx, userID, slotIndex, data, contentType, filename)
	return stored, "inline"
}
