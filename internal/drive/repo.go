package drive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"yearbook/internal/model"
)

// CredentialRepository persists one OAuth token set per user.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a repo.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Upsert stores a credential set, replacing any earlier one for the user.
func (r *CredentialRepository) Upsert(ctx context.Context, cred *model.DriveCredential) error {
	scopes, err := json.Marshal(cred.Scopes)
	if err != nil {
		return err
	}
	var expiry any
	if !cred.Expiry.IsZero() {
		expiry = cred.Expiry
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO drive_credentials (user_id, access_token, refresh_token, token_uri, client_id, client_secret, scopes, expiry, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_uri = EXCLUDED.token_uri,
			client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			scopes = EXCLUDED.scopes,
			expiry = EXCLUDED.expiry,
			updated_at = NOW()
	`, cred.UserID, cred.AccessToken, cred.RefreshToken, cred.TokenURI,
		cred.ClientID, cred.ClientSecret, scopes, expiry)
	return err
}

// Find returns a user's credential set, or nil when not connected.
func (r *CredentialRepository) Find(ctx context.Context, userID string) (*model.DriveCredential, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, access_token, refresh_token, token_uri, client_id, client_secret, scopes, expiry, updated_at
		FROM drive_credentials WHERE user_id = $1
	`, userID)

	var (
		cred   model.DriveCredential
		scopes []byte
		expiry sql.NullTime
	)
	err := row.Scan(&cred.UserID, &cred.AccessToken, &cred.RefreshToken, &cred.TokenURI,
		&cred.ClientID, &cred.ClientSecret, &scopes, &expiry, &cred.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(scopes, &cred.Scopes); err != nil {
		return nil, fmt.Errorf("decode scopes: %w", err)
	}
	if expiry.Valid {
		cred.Expiry = expiry.Time
	}
	return &cred, nil
}

// UpdateToken persists a refreshed access token and expiry.
func (r *CredentialRepository) UpdateToken(ctx context.Context, userID, accessToken string, expiry time.Time) error {
	var exp any
	if !expiry.IsZero() {
		exp = expiry
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE drive_credentials
		SET access_token = $2, expiry = $3, updated_at = NOW()
		WHERE user_id = $1
	`, userID, accessToken, exp)
	return err
}
