// Package drive talks to Google Drive: the OAuth 2.0 authorization flow and
// the file upload endpoint.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"yearbook/internal/model"
)

const (
	defaultAuthURL   = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files"

	driveFileScope = "https://www.googleapis.com/auth/drive.file"
)

// ErrNotConfigured is returned when OAuth client credentials are missing.
var ErrNotConfigured = errors.New("Google Drive not configured")

// Config holds OAuth client credentials. The endpoint URLs are overridable
// for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL   string
	TokenURL  string
	UploadURL string
}

// Client performs the OAuth flow and uploads files via the Drive REST API.
type Client struct {
	cfg  Config
	HTTP *http.Client
}

// New creates a Drive client.
func New(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = defaultUploadURL
	}
	return &Client{
		cfg:  cfg,
		HTTP: &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether OAuth client credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// AuthCodeURL builds the user consent URL. The caller's user id travels as
// the opaque state parameter and comes back on the callback.
func (c *Client) AuthCodeURL(state string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	params := url.Values{
		"client_id":              {c.cfg.ClientID},
		"redirect_uri":           {c.cfg.RedirectURI},
		"response_type":          {"code"},
		"scope":                  {driveFileScope},
		"state":                  {state},
		"access_type":            {"offline"},
		"include_granted_scopes": {"true"},
		"prompt":                 {"consent"},
	}
	return c.cfg.AuthURL + "?" + params.Encode(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// ExchangeCode trades an authorization code for a credential set. A copy of
// the client id/secret is stored alongside the tokens so refreshes keep
// working even if the server credentials rotate.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*model.DriveCredential, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	tok, err := c.postToken(ctx, c.cfg.TokenURL, url.Values{
		"code":          {code},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"redirect_uri":  {c.cfg.RedirectURI},
		"grant_type":    {"authorization_code"},
	})
	if err != nil {
		return nil, err
	}

	cred := &model.DriveCredential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     c.cfg.TokenURL,
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Scopes:       strings.Fields(tok.Scope),
	}
	if len(cred.Scopes) == 0 {
		cred.Scopes = []string{driveFileScope}
	}
	if tok.ExpiresIn > 0 {
		cred.Expiry = time.Now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return cred, nil
}

// Refresh obtains a new access token using the credential's refresh token.
// The returned credential carries the new token and expiry; the refresh
// token itself is unchanged.
func (c *Client) Refresh(ctx context.Context, cred model.DriveCredential) (*model.DriveCredential, error) {
	if cred.RefreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	tokenURL := cred.TokenURI
	if tokenURL == "" {
		tokenURL = c.cfg.TokenURL
	}
	tok, err := c.postToken(ctx, tokenURL, url.Values{
		"refresh_token": {cred.RefreshToken},
		"client_id":     {cred.ClientID},
		"client_secret": {cred.ClientSecret},
		"grant_type":    {"refresh_token"},
	})
	if err != nil {
		return nil, err
	}

	cred.AccessToken = tok.AccessToken
	if tok.ExpiresIn > 0 {
		cred.Expiry = time.Now().UTC().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return &cred, nil
}

func (c *Client) postToken(ctx context.Context, tokenURL string, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("drive: create token request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive: token exchange failed (%d): %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("drive: decode token response failed: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("drive: empty access token in response")
	}
	return &tok, nil
}

// UploadResult holds the response from Drive after a successful upload.
type UploadResult struct {
	ID          string `json:"id"`
	WebViewLink string `json:"webViewLink"`
}

// Upload sends file bytes to Drive using a multipart/related request:
// a JSON metadata part followed by the media part.
func (c *Client) Upload(ctx context.Context, accessToken, name, contentType string, data []byte) (*UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, fmt.Errorf("drive: create metadata part failed: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(map[string]string{"name": name}); err != nil {
		return nil, fmt.Errorf("drive: encode metadata failed: %w", err)
	}

	mediaHeader := textproto.MIMEHeader{}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	mediaHeader.Set("Content-Type", contentType)
	mediaPart, err := w.CreatePart(mediaHeader)
	if err != nil {
		return nil, fmt.Errorf("drive: create media part failed: %w", err)
	}
	if _, err := io.Copy(mediaPart, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("drive: write file failed: %w", err)
	}
	w.Close()

	uploadURL := c.cfg.UploadURL + "?uploadType=multipart&fields=id,webViewLink"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("drive: create request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+w.Boundary())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("drive: upload failed (%d): %s", resp.StatusCode, string(body))
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("drive: decode response failed: %w", err)
	}
	return &result, nil
}
