package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpurge/pkg/config"
	"xpurge/pkg/credential"
	errs "xpurge/pkg/errors"
	"xpurge/pkg/logger"
	"xpurge/pkg/twitter"
	"xpurge/pkg/twitter/twittertest"
)

func newClient(srv *twittertest.Server) *twitter.Client {
	srv.ConsumerSecret = "cs"
	return twitter.NewClient(config.AppCredential{APIKey: "bearer", ConsumerKey: "ck", ConsumerSecret: "cs"}, 5*time.Second,
		twitter.WithBaseURL(srv.URL),
		twitter.WithLogger(logger.NewNopLogger()),
	)
}

func TestLoginAliceScenario(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	srv.Verifier = "000000"
	srv.RequestTokenBody = "oauth_token=tmpA&oauth_callback_confirmed=true"
	srv.RequestSecret = ""
	client := newClient(srv)

	p := &ScriptedPrompter{Answers: []string{"alice", "000000"}}
	cred, err := Login(context.Background(), client, p)
	require.NoError(t, err)

	assert.Equal(t, &credential.UserCredential{
		Username:         "alice",
		ID:               "123",
		OAuthToken:       "finalB",
		OAuthTokenSecret: "secC",
	}, cred)
	assert.Zero(t, srv.SignatureFailures())
	assert.Nil(t, client.User(), "Login alone does not wire the client")

	require.Len(t, p.Messages, 2)
	assert.Contains(t, p.Messages[1], "/oauth/authorize?oauth_token=tmpA")

	access := srv.CallsTo("/oauth/access_token")
	require.Len(t, access, 1)
	fields, err := twittertest.ParseAuthorization(access[0].Authorization)
	require.NoError(t, err)
	assert.Equal(t, "tmpA", fields["oauth_token"])
	assert.Equal(t, "000000", access[0].Query.Get("oauth_verifier"))
}

func TestLoginMissingRequestToken(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	srv.RequestTokenBody = "oauth_callback_confirmed=true"
	client := newClient(srv)

	_, err := Login(context.Background(), client, &ScriptedPrompter{Answers: []string{"alice", "000000"}})
	assert.ErrorIs(t, err, errs.ErrCredentialExchangeFailed)
	assert.Empty(t, srv.CallsTo("/oauth/access_token"))
}

func TestLoginUnknownHandle(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)

	_, err := Login(context.Background(), client, &ScriptedPrompter{Answers: []string{"@nobody"}})
	require.Error(t, err)
	assert.True(t, errs.IsTransport(err))
	assert.Empty(t, srv.CallsTo("/oauth/request_token"))
}

func TestLoginEmptyInput(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)

	_, err := Login(context.Background(), client, &ScriptedPrompter{Answers: []string{"  "}})
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Login(context.Background(), client, &ScriptedPrompter{Answers: []string{"alice", ""}})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestInitClientUsesStoredCredential(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)

	stored := &credential.UserCredential{Username: "alice", ID: "123", OAuthToken: "finalB", OAuthTokenSecret: "secC"}
	store := credential.NewMockStore(stored)
	p := &ScriptedPrompter{}

	cred, err := InitClient(context.Background(), client, store, p)
	require.NoError(t, err)
	assert.Equal(t, stored, cred)
	assert.Equal(t, stored, client.User())
	assert.Empty(t, srv.Calls())
	assert.Empty(t, p.Prompts)
}

func TestInitClientLogsInAndSaves(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)
	store := credential.NewMockStore(nil)

	cred, err := InitClient(context.Background(), client, store, &ScriptedPrompter{Answers: []string{"alice", "000000"}})
	require.NoError(t, err)

	assert.Equal(t, 1, store.Saves)
	assert.Equal(t, cred, client.User())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "finalB", saved.OAuthToken)
}

func TestInitClientLoadFailure(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)
	store := credential.NewMockStore(nil)
	store.LoadError = errors.New("disk on fire")

	_, err := InitClient(context.Background(), client, store, &ScriptedPrompter{})
	assert.ErrorContains(t, err, "disk on fire")
	assert.Nil(t, client.User())
}

func TestLoginAndSaveSaveFailure(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)
	store := credential.NewMockStore(nil)
	store.SaveError = credential.ErrStoreUnavailable

	_, err := LoginAndSave(context.Background(), client, store, &ScriptedPrompter{Answers: []string{"alice", "000000"}})
	assert.ErrorIs(t, err, credential.ErrStoreUnavailable)
	assert.Nil(t, client.User())
}

func clearEnvCredential(t *testing.T) {
	for _, key := range []string{credential.EnvUsername, credential.EnvUserID, credential.EnvOAuthToken, credential.EnvOAuthTokenSecret} {
		t.Setenv(key, "")
	}
}

func TestInitClientReadOnlyStoreFailsBeforePrompting(t *testing.T) {
	clearEnvCredential(t)
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)
	p := &ScriptedPrompter{Answers: []string{"alice", "000000"}}

	cred, err := InitClient(context.Background(), client, credential.NewEnvironmentStore(), p)
	assert.Nil(t, cred)
	assert.ErrorIs(t, err, credential.ErrCredentialsNotFound)
	assert.ErrorContains(t, err, credential.EnvOAuthToken)
	assert.Empty(t, p.Prompts)
	assert.Empty(t, srv.Calls())
	assert.Nil(t, client.User())
}

func TestInitClientReadOnlyStoreWithCredential(t *testing.T) {
	clearEnvCredential(t)
	t.Setenv(credential.EnvUsername, "alice")
	t.Setenv(credential.EnvUserID, "123")
	t.Setenv(credential.EnvOAuthToken, "finalB")
	t.Setenv(credential.EnvOAuthTokenSecret, "secC")
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)

	cred, err := InitClient(context.Background(), client, credential.NewEnvironmentStore(), &ScriptedPrompter{})
	require.NoError(t, err)
	assert.Equal(t, "finalB", client.User().OAuthToken)
	assert.Equal(t, "123", cred.ID)
}

func TestLoginAndSaveReadOnlyStore(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	client := newClient(srv)
	p := &ScriptedPrompter{Answers: []string{"alice", "000000"}}

	_, err := LoginAndSave(context.Background(), client, credential.NewEnvironmentStore(), p)
	assert.ErrorIs(t, err, credential.ErrStoreUnavailable)
	assert.Empty(t, p.Prompts)
	assert.Empty(t, srv.Calls())
}

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("alice\n 123456 "), &out)

	handle, err := p.ReadLine("X handle: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", handle)

	pin, err := p.ReadSecret("PIN: ")
	require.NoError(t, err)
	assert.Equal(t, "123456", pin)

	_, err = p.ReadLine("more: ")
	assert.Error(t, err)

	p.Notify("hello")
	assert.Equal(t, "X handle: PIN: more: hello\n", out.String())
}
