package credential

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables read by EnvironmentStore
const (
	EnvUsername         = "XPURGE_USERNAME"
	EnvUserID           = "XPURGE_USER_ID"
	EnvOAuthToken       = "XPURGE_OAUTH_TOKEN"
	EnvOAuthTokenSecret = "XPURGE_OAUTH_TOKEN_SECRET"
)

// EnvironmentStore reads a credential from environment variables. It is read only,
// which suits CI jobs that inject secrets.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Load builds a credential from the environment
func (e *EnvironmentStore) Load() (*UserCredential, error) {
	cred := &UserCredential{
		Username:         os.Getenv(EnvUsername),
		ID:               os.Getenv(EnvUserID),
		OAuthToken:       os.Getenv(EnvOAuthToken),
		OAuthTokenSecret: os.Getenv(EnvOAuthTokenSecret),
	}
	if cred.Validate() != nil {
		return nil, fmt.Errorf("%w: set %s", ErrCredentialsNotFound, strings.Join(missingEnv(), ", "))
	}
	return cred, nil
}

// ReadOnly is always true; the environment is never written
func (e *EnvironmentStore) ReadOnly() bool {
	return true
}

func missingEnv() []string {
	var missing []string
	for _, key := range []string{EnvUserID, EnvOAuthToken, EnvOAuthTokenSecret} {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Save is not supported for environment variables
func (e *EnvironmentStore) Save(*UserCredential) error {
	return ErrStoreUnavailable
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are complete
func (e *EnvironmentStore) Exists() bool {
	_, err := e.Load()
	return err == nil
}
