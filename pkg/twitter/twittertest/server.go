// Package twittertest provides an in-memory fake of the X API endpoints xpurge uses.
//
// The fake is stateful: deleted posts and removed likes disappear from later
// fetches, so pipelines can run against it until they drain it. Every request
// is recorded and, when ConsumerSecret is set, its OAuth signature is checked.
package twittertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"xpurge/pkg/oauth1"
)

// Tweet is the fake's view of a post
type Tweet struct {
	ID        string `json:"id"`
	Text      string `json:"text,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Call is one recorded request
type Call struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
}

// Server is a fake X API
type Server struct {
	*httptest.Server

	mu sync.Mutex

	// ConsumerSecret enables signature verification when non-empty
	ConsumerSecret string

	// Users maps handles to ids for the lookup endpoint
	Users map[string]string

	// UserID, UserToken and UserSecret identify the logged in user
	UserID     string
	UserToken  string
	UserSecret string

	// RequestTokenBody and AccessTokenBody are returned verbatim by the token endpoints
	RequestTokenBody string
	AccessTokenBody  string
	// RequestSecret signs the access-token call
	RequestSecret string
	// Verifier, when set, must match oauth_verifier
	Verifier string

	Tweets []Tweet
	Likes  []Tweet

	// FetchStatus makes every timeline fetch fail with this status
	FetchStatus int
	// FailDelete and FailUnlike fail actions on specific ids with the given status
	FailDelete map[string]int
	FailUnlike map[string]int
	// StickyLikes keeps failed unlikes on the first page, as the real API does
	StickyLikes bool

	calls    []Call
	sigFails int
}

var (
	userByName  = regexp.MustCompile(`^/2/users/by/username/([^/]+)$`)
	userTweets  = regexp.MustCompile(`^/2/users/([^/]+)/tweets$`)
	likedTweets = regexp.MustCompile(`^/2/users/([^/]+)/liked_tweets$`)
	destroyPost = regexp.MustCompile(`^/1\.1/statuses/destroy/([^/]+)\.json$`)
)

// NewServer starts a fake preloaded with the alice login scenario
func NewServer() *Server {
	s := &Server{
		Users:            map[string]string{"alice": "123"},
		UserID:           "123",
		UserToken:        "finalB",
		UserSecret:       "secC",
		RequestTokenBody: "oauth_token=tmpA&oauth_token_secret=tmpSecret&oauth_callback_confirmed=true",
		AccessTokenBody:  "oauth_token=finalB&oauth_token_secret=secC&user_id=123&screen_name=alice",
		RequestSecret:    "tmpSecret",
		FailDelete:       map[string]int{},
		FailUnlike:       map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Calls returns a copy of every recorded request
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns recorded requests whose path matches prefix
func (s *Server) CallsTo(prefix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// SignatureFailures counts requests rejected for a bad signature
func (s *Server) SignatureFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sigFails
}

// SetTweets replaces the user's posts with plain ids
func (s *Server) SetTweets(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tweets = tweetsFromIDs(ids)
}

// SetLikes replaces the user's likes with plain ids
func (s *Server) SetLikes(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Likes = tweetsFromIDs(ids)
}

// RemainingTweets returns the ids still present
func (s *Server) RemainingTweets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids(s.Tweets)
}

// RemainingLikes returns the liked ids still present
func (s *Server) RemainingLikes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ids(s.Likes)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.Query(),
		Authorization: r.Header.Get("Authorization"),
	})

	path := r.URL.Path
	switch {
	case path == "/oauth/request_token" && r.Method == http.MethodPost:
		if !s.requireBearer(w, r) {
			return
		}
		fmt.Fprint(w, s.RequestTokenBody)

	case path == "/oauth/access_token" && r.Method == http.MethodPost:
		if !s.requireOAuth(w, r, r.URL.Query().Get("oauth_token"), s.RequestSecret) {
			return
		}
		if s.Verifier != "" && r.URL.Query().Get("oauth_verifier") != s.Verifier {
			writeError(w, http.StatusUnauthorized, "Invalid verifier")
			return
		}
		fmt.Fprint(w, s.AccessTokenBody)

	case userByName.MatchString(path) && r.Method == http.MethodGet:
		if !s.requireBearer(w, r) {
			return
		}
		name := userByName.FindStringSubmatch(path)[1]
		id, ok := s.Users[name]
		if !ok {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"errors": []map[string]string{{"title": "Not Found Error", "detail": "Could not find user with username: [" + name + "]."}},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": map[string]string{"id": id, "name": name, "username": name},
		})

	case userTweets.MatchString(path) && r.Method == http.MethodGet:
		if !s.requireUser(w, r) {
			return
		}
		s.serveTimeline(w, r, filterWindow(s.Tweets, r.URL.Query()))

	case likedTweets.MatchString(path) && r.Method == http.MethodGet:
		if !s.requireUser(w, r) {
			return
		}
		s.serveTimeline(w, r, s.Likes)

	case destroyPost.MatchString(path) && r.Method == http.MethodPost:
		if !s.requireUser(w, r) {
			return
		}
		id := destroyPost.FindStringSubmatch(path)[1]
		if status, ok := s.FailDelete[id]; ok {
			writeError(w, status, "delete refused")
			return
		}
		s.Tweets = remove(s.Tweets, id)
		writeJSON(w, http.StatusOK, map[string]string{"id_str": id})

	case path == "/1.1/favorites/destroy.json" && r.Method == http.MethodPost:
		if !s.requireUser(w, r) {
			return
		}
		id := r.URL.Query().Get("id")
		if status, ok := s.FailUnlike[id]; ok {
			if !s.StickyLikes {
				s.Likes = remove(s.Likes, id)
			}
			writeError(w, status, "unlike refused")
			return
		}
		s.Likes = remove(s.Likes, id)
		writeJSON(w, http.StatusOK, map[string]string{"id_str": id})

	default:
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+path)
	}
}

func (s *Server) serveTimeline(w http.ResponseWriter, r *http.Request, tweets []Tweet) {
	if s.FetchStatus != 0 {
		writeError(w, s.FetchStatus, "fetch refused")
		return
	}

	limit := 100
	if v, err := strconv.Atoi(r.URL.Query().Get("max_results")); err == nil && v > 0 {
		limit = v
	}
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}

	body := map[string]interface{}{"meta": map[string]int{"result_count": len(tweets)}}
	if len(tweets) > 0 {
		body["data"] = tweets
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) requireBearer(w http.ResponseWriter, r *http.Request) bool {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		writeError(w, http.StatusUnauthorized, "bearer token required")
		return false
	}
	return true
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) bool {
	return s.requireOAuth(w, r, s.UserToken, s.UserSecret)
}

// requireOAuth checks the header names token and, if enabled, that the signature verifies
func (s *Server) requireOAuth(w http.ResponseWriter, r *http.Request, token, tokenSecret string) bool {
	fields, err := ParseAuthorization(r.Header.Get("Authorization"))
	if err != nil || fields["oauth_token"] != token {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}

	if s.ConsumerSecret == "" {
		return true
	}

	params := make(oauth1.Params, 0, len(fields))
	for key, value := range r.URL.Query() {
		if _, dup := fields[key]; dup {
			continue
		}
		for _, v := range value {
			params = params.Add(key, v)
		}
	}
	for key, value := range fields {
		if key != "oauth_signature" {
			params = params.Add(key, value)
		}
	}

	endpoint := "http://" + r.Host + r.URL.Path
	want := oauth1.Signature(oauth1.BaseString(r.Method, endpoint, params), s.ConsumerSecret, tokenSecret)
	if fields["oauth_signature"] != want {
		s.sigFails++
		writeError(w, http.StatusUnauthorized, "Could not authenticate you")
		return false
	}
	return true
}

// ParseAuthorization decodes an unquoted OAuth header into its fields
func ParseAuthorization(header string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(header, "OAuth ")
	if !ok {
		return nil, fmt.Errorf("not an OAuth header: %q", header)
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("malformed field %q", part)
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			return nil, err
		}
		fields[key] = decoded
	}
	return fields, nil
}

func filterWindow(tweets []Tweet, q url.Values) []Tweet {
	start, end := q.Get("start_time"), q.Get("end_time")
	if start == "" && end == "" {
		return tweets
	}

	var out []Tweet
	for _, t := range tweets {
		if start != "" && t.CreatedAt < start {
			continue
		}
		if end != "" && t.CreatedAt >= end {
			continue
		}
		out = append(out, t)
	}
	return out
}

func remove(tweets []Tweet, id string) []Tweet {
	out := tweets[:0:0]
	for _, t := range tweets {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func tweetsFromIDs(list []string) []Tweet {
	out := make([]Tweet, len(list))
	for i, id := range list {
		out[i] = Tweet{ID: id, Text: "post " + id, CreatedAt: "2020-01-01T00:00:00.000Z"}
	}
	return out
}

func ids(tweets []Tweet) []string {
	out := make([]string, len(tweets))
	for i, t := range tweets {
		out[i] = t.ID
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, map[string]interface{}{
		"title":  http.StatusText(status),
		"detail": detail,
		"status": status,
	})
}
