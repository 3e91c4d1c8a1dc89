package credential

import (
	"errors"
	"fmt"
	"strings"

	"xpurge/pkg/config"
)

// UserCredential is the logged in user's identity and access token pair
type UserCredential struct {
	Username         string `json:"username"`
	ID               string `json:"id"`
	OAuthToken       string `json:"oauth_token"`
	OAuthTokenSecret string `json:"oauth_token_secret"`
}

// Validate reports the first missing field
func (u *UserCredential) Validate() error {
	if u == nil {
		return ErrInvalidCredentials
	}
	switch {
	case u.ID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidCredentials)
	case u.OAuthToken == "":
		return fmt.Errorf("%w: oauth token is required", ErrInvalidCredentials)
	case u.OAuthTokenSecret == "":
		return fmt.Errorf("%w: oauth token secret is required", ErrInvalidCredentials)
	}
	return nil
}

// Store persists the single user credential xpurge works with
type Store interface {
	// Load returns ErrCredentialsNotFound when nothing has been saved yet
	Load() (*UserCredential, error)

	// Save replaces any stored credential
	Save(cred *UserCredential) error

	// Delete removes the stored credential
	Delete() error

	// Exists reports whether Load would find a credential
	Exists() bool
}

// ReadOnlyStore is implemented by stores that can load but never save
type ReadOnlyStore interface {
	ReadOnly() bool
}

// Writable reports whether a login can be persisted to s
func Writable(s Store) bool {
	ro, ok := s.(ReadOnlyStore)
	return !ok || !ro.ReadOnly()
}

// NewStore builds the backend selected in cfg
func NewStore(cfg config.CredentialsConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "keyring":
		return NewKeyringStore()
	case "encrypted":
		return NewEncryptedStore(cfg.Path + ".enc")
	case "env":
		return NewEnvironmentStore(), nil
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", cfg.Backend)
	}
}

// Sanitize returns a copy with the token pair masked, safe for display and logs
func Sanitize(cred *UserCredential) *UserCredential {
	if cred == nil {
		return nil
	}

	return &UserCredential{
		Username:         cred.Username,
		ID:               cred.ID,
		OAuthToken:       maskString(cred.OAuthToken),
		OAuthTokenSecret: maskString(cred.OAuthTokenSecret),
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
