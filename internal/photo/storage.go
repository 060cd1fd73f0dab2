package photo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yearbook/internal/drive"
	"yearbook/internal/model"
)

// ErrNotConnected is returned by the remote storage when the user has no
// cloud credential on file.
var ErrNotConnected = errors.New("drive not connected")

// Stored identifies where a photo ended up.
type Stored struct {
	FileID  string
	FileURL string
}

// Storage puts photo bytes somewhere and returns a reference to them.
type Storage interface {
	Store(ctx context.Context, userID string, slotIndex int, data []byte, contentType, filename string) (*Stored, error)
}

// InlineStorage encodes the bytes into a data URL carried in the reference
// itself. It never fails and needs no external service.
type InlineStorage struct{}

// Store implements Storage.
func (InlineStorage) Store(_ context.Context, _ string, _ int, data []byte, contentType, _ string) (*Stored, error) {
	return &Stored{
		FileID:  uuid.NewString(),
		FileURL: fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)),
	}, nil
}

// CredentialStore loads and refreshes persisted drive credentials.
type CredentialStore interface {
	Find(ctx context.Context, userID string) (*model.DriveCredential, error)
	UpdateToken(ctx context.Context, userID, accessToken string, expiry time.Time) error
}

// DriveStorage uploads to the user's connected Google Drive, refreshing an
// expired access token first and persisting the refreshed token.
type DriveStorage struct {
	Client *drive.Client
	Creds  CredentialStore
}

// Store implements Storage.
func (s *DriveStorage) Store(ctx context.Context, userID string, slotIndex int, data []byte, contentType, filename string) (*Stored, error) {
	cred, err := s.Creds.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotConnected
	}

	if cred.Expired(time.Now()) && cred.RefreshToken != "" {
		refreshed, err := s.Client.Refresh(ctx, *cred)
		if err != nil {
			return nil, fmt.Errorf("refresh token: %w", err)
		}
		if err := s.Creds.UpdateToken(ctx, userID, refreshed.AccessToken, refreshed.Expiry); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
		cred = refreshed
	}

	name := fmt.Sprintf("%s_slot_%d_%s", userID, slotIndex, filename)
	result, err := s.Client.Upload(ctx, cred.AccessToken, name, contentType, data)
	if err != nil {
		return nil, err
	}
	return &Stored{FileID: result.ID, FileURL: result.WebViewLink}, nil
}
