// Package session runs the PIN based OAuth login and wires the resulting user
// credential into the API client.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"xpurge/pkg/credential"
	"xpurge/pkg/twitter"
)

// Authenticator is the slice of the X client login needs
type Authenticator interface {
	LookupUser(ctx context.Context, username string) (*twitter.User, error)
	RequestToken(ctx context.Context) (*twitter.TokenPair, error)
	AuthorizeURL(requestToken string) string
	AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*twitter.TokenPair, error)
	SetUser(user *credential.UserCredential)
}

// ErrEmptyInput is returned when the operator enters nothing at a prompt
var ErrEmptyInput = errors.New("no input given")

// Login asks for the handle, resolves it, and runs the request-token, authorize,
// access-token exchange. Nothing is persisted.
func Login(ctx context.Context, api Authenticator, p Prompter) (*credential.UserCredential, error) {
	handle, err := p.ReadLine("X handle: ")
	if err != nil {
		return nil, err
	}
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		return nil, fmt.Errorf("handle: %w", ErrEmptyInput)
	}

	user, err := api.LookupUser(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to look up @%s: %w", handle, err)
	}

	request, err := api.RequestToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain request token: %w", err)
	}

	p.Notify("Open this URL, authorize the app and copy the PIN:")
	p.Notify("  " + api.AuthorizeURL(request.Token))

	pin, err := p.ReadSecret("PIN: ")
	if err != nil {
		return nil, err
	}
	if pin == "" {
		return nil, fmt.Errorf("PIN: %w", ErrEmptyInput)
	}

	access, err := api.AccessToken(ctx, request.Token, request.Secret, pin)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange PIN for access token: %w", err)
	}

	username := user.Username
	if username == "" {
		username = handle
	}

	return &credential.UserCredential{
		Username:         username,
		ID:               user.ID,
		OAuthToken:       access.Token,
		OAuthTokenSecret: access.Secret,
	}, nil
}

// LoginAndSave runs Login, persists the credential and wires it into api.
// A read-only store fails before anything is prompted.
func LoginAndSave(ctx context.Context, api Authenticator, store credential.Store, p Prompter) (*credential.UserCredential, error) {
	if !credential.Writable(store) {
		return nil, fmt.Errorf("cannot save a new login: %w", credential.ErrStoreUnavailable)
	}

	cred, err := Login(ctx, api, p)
	if err != nil {
		return nil, err
	}
	if err := store.Save(cred); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}
	api.SetUser(cred)
	return cred, nil
}

// InitClient wires the stored credential into api, logging in first when there is none
func InitClient(ctx context.Context, api Authenticator, store credential.Store, p Prompter) (*credential.UserCredential, error) {
	cred, err := store.Load()
	switch {
	case err == nil:
		api.SetUser(cred)
		return cred, nil
	case errors.Is(err, credential.ErrCredentialsNotFound):
		if !credential.Writable(store) {
			return nil, fmt.Errorf("read-only credential store is empty: %w", err)
		}
		return LoginAndSave(ctx, api, store, p)
	default:
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
}
