package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"xpurge/pkg/oauth1"
)

const (
	// DefaultBaseURL is the X API host
	DefaultBaseURL = "https://api.twitter.com"

	userByUsernamePath = "/2/users/by/username/%s"
	userTweetsPath     = "/2/users/%s/tweets"
	likedTweetsPath    = "/2/users/%s/liked_tweets"
	destroyStatusPath  = "/1.1/statuses/destroy/%s.json"
	destroyFavorite    = "/1.1/favorites/destroy.json"
	requestTokenPath   = "/oauth/request_token"
	accessTokenPath    = "/oauth/access_token"
	authorizePath      = "/oauth/authorize"

	// MaxResults is the largest page the v2 timeline endpoints return
	MaxResults = 100

	// TweetFields are the expansions persisted in the work file
	TweetFields = "created_at,public_metrics,attachments"

	// OutOfBandCallback selects PIN based authorization
	OutOfBandCallback = "oob"

	dateLayout = "2006-01-02"
)

// Window restricts the delete pipeline to posts created in [Since, Until)
type Window struct {
	Since string
	Until string
}

// ParseWindow validates YYYY-MM-DD bounds. Either may be empty.
func ParseWindow(since, until string) (Window, error) {
	var s, u time.Time
	var err error

	if since != "" {
		if s, err = time.Parse(dateLayout, since); err != nil {
			return Window{}, fmt.Errorf("invalid since date %q, expected YYYY-MM-DD", since)
		}
	}
	if until != "" {
		if u, err = time.Parse(dateLayout, until); err != nil {
			return Window{}, fmt.Errorf("invalid until date %q, expected YYYY-MM-DD", until)
		}
	}
	if since != "" && until != "" && !s.Before(u) {
		return Window{}, fmt.Errorf("since (%s) must be before until (%s)", since, until)
	}

	return Window{Since: since, Until: until}, nil
}

// IsZero reports whether the window is unbounded
func (w Window) IsZero() bool {
	return w.Since == "" && w.Until == ""
}

// StartTime returns the RFC 3339 lower bound, or "" when unbounded
func (w Window) StartTime() string {
	return expandDate(w.Since)
}

// EndTime returns the RFC 3339 upper bound, or "" when unbounded
func (w Window) EndTime() string {
	return expandDate(w.Until)
}

func expandDate(d string) string {
	if d == "" {
		return ""
	}
	return d + "T00:00:00Z"
}

func (w Window) String() string {
	if w.IsZero() {
		return "all time"
	}
	since, until := w.Since, w.Until
	if since == "" {
		since = "beginning"
	}
	if until == "" {
		until = "now"
	}
	return since + " to " + until
}

// timelineParams are the query parameters shared by the tweets and liked_tweets endpoints
func timelineParams(batchSize int) oauth1.Params {
	if batchSize <= 0 || batchSize > MaxResults {
		batchSize = MaxResults
	}
	return oauth1.NewParams(
		"max_results", strconv.Itoa(batchSize),
		"tweet.fields", TweetFields,
	)
}

// tweetsParams adds the window bounds to the timeline parameters
func tweetsParams(batchSize int, w Window) oauth1.Params {
	params := timelineParams(batchSize)
	if start := w.StartTime(); start != "" {
		params = params.Add("start_time", start)
	}
	if end := w.EndTime(); end != "" {
		params = params.Add("end_time", end)
	}
	return params
}

// AuthorizeURL returns the page where the user approves the app and receives a PIN
func AuthorizeURL(baseURL, requestToken string) string {
	return baseURL + authorizePath + "?" + oauth1.NewParams("oauth_token", requestToken).Encode()
}

// PostURL returns the public URL of a post
func PostURL(username, id string) string {
	if username == "" {
		return "https://x.com/i/web/status/" + id
	}
	return fmt.Sprintf("https://x.com/%s/status/%s", url.PathEscape(username), id)
}
