package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"xpurge/pkg/config"
	"xpurge/pkg/credential"
	errs "xpurge/pkg/errors"
	"xpurge/pkg/logger"
	"xpurge/pkg/metrics"
	"xpurge/pkg/oauth1"
	"xpurge/pkg/ratelimit"
	"xpurge/pkg/retry"
)

// Client talks to the X API on behalf of one app and, once logged in, one user
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	batchSize  int
	app        config.AppCredential
	user       *credential.UserCredential
	signer     *oauth1.Signer
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another host, such as a test server
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter sets the client side rate limiter
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry retries transient failures of each request according to cfg
func WithRetry(cfg *retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithBatchSize sets max_results for timeline fetches
func WithBatchSize(n int) Option {
	return func(c *Client) { c.batchSize = n }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates an unauthenticated client. Only the login calls work until SetUser.
func NewClient(app config.AppCredential, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		userAgent:  "xpurge/1.0",
		batchSize:  MaxResults,
		app:        app,
		signer:     oauth1.NewSigner(app.ConsumerKey, app.ConsumerSecret),
		limiter:    ratelimit.Unlimited(),
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the api, pipeline, rate_limit and retry sections
func NewFromConfig(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := []Option{
		WithBaseURL(cfg.API.BaseURL),
		WithUserAgent(cfg.API.UserAgent),
		WithBatchSize(cfg.Pipeline.BatchSize),
		WithLimiter(ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)),
		WithLogger(log),
	}

	if cfg.Retry.Enabled {
		opts = append(opts, WithRetry(&retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:    cfg.Retry.BaseDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
				Multiplier:   2.0,
				JitterFactor: 0.1,
			},
			MaxRetryAfter: 15 * time.Minute,
			RetryIf:       retry.DefaultRetryIf,
			Logger:        log,
		}))
	}

	return NewClient(cfg.AppCredential(), cfg.API.Timeout, opts...)
}

// SetUser wires a logged in user into the client; nil logs out
func (c *Client) SetUser(user *credential.UserCredential) {
	c.user = user
}

// User returns the current user credential, or nil
func (c *Client) User() *credential.UserCredential {
	return c.user
}

// BaseURL returns the API host the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LookupUser resolves a handle to a user id using the app bearer token
func (c *Client) LookupUser(ctx context.Context, username string) (*User, error) {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	path := fmt.Sprintf(userByUsernamePath, url.PathEscape(username))

	body, err := c.send(ctx, "lookup_user", http.MethodGet, path, nil, c.bearer)
	if err != nil {
		return nil, err
	}

	var resp UserResponse
	if err := c.decode(path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || resp.Data.ID == "" {
		msg := "user not found"
		if len(resp.Errors) > 0 {
			msg = resp.Errors[0].String()
		}
		return nil, errs.Transport(http.StatusNotFound, msg)
	}

	c.logger.DebugWithFields("resolved user", map[string]interface{}{
		"username": resp.Data.Username,
		"user_id":  resp.Data.ID,
	})
	return resp.Data, nil
}

// RequestToken starts the PIN flow and returns a temporary token pair.
// The secret may be empty when the server omits it.
func (c *Client) RequestToken(ctx context.Context) (*TokenPair, error) {
	params := oauth1.NewParams(
		"oauth_consumer_key", c.app.ConsumerKey,
		"oauth_callback", OutOfBandCallback,
	)

	body, err := c.send(ctx, "request_token", http.MethodPost, requestTokenPath, params, c.bearer)
	if err != nil {
		return nil, err
	}

	return parseTokenResponse(body, false)
}

// AuthorizeURL returns the page where the user approves the app
func (c *Client) AuthorizeURL(requestToken string) string {
	return AuthorizeURL(c.baseURL, requestToken)
}

// AccessToken exchanges the request token and PIN for the user's access token pair.
// The call is signed with the request token and its secret.
func (c *Client) AccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*TokenPair, error) {
	params := oauth1.NewParams(
		"oauth_token", requestToken,
		"oauth_verifier", strings.TrimSpace(verifier),
	)

	body, err := c.send(ctx, "access_token", http.MethodPost, accessTokenPath, params,
		c.oauth(http.MethodPost, params, requestToken, requestSecret))
	if err != nil {
		return nil, err
	}

	return parseTokenResponse(body, true)
}

// FetchTweets returns the first page of the user's posts inside w
func (c *Client) FetchTweets(ctx context.Context, w Window) ([]Tweet, error) {
	return c.fetchTimeline(ctx, "tweets", userTweetsPath, tweetsParams(c.batchSize, w))
}

// FetchLikes returns the first page of posts the user has liked
func (c *Client) FetchLikes(ctx context.Context) ([]Tweet, error) {
	return c.fetchTimeline(ctx, "liked_tweets", likedTweetsPath, timelineParams(c.batchSize))
}

// DeleteTweet deletes one of the user's posts
func (c *Client) DeleteTweet(ctx context.Context, id string) error {
	auth, err := c.userAuth("delete_tweet", http.MethodPost, nil)
	if err != nil {
		return err
	}

	_, err = c.send(ctx, "delete_tweet", http.MethodPost, fmt.Sprintf(destroyStatusPath, url.PathEscape(id)), nil, auth)
	return err
}

// Unlike removes the user's like from a post
func (c *Client) Unlike(ctx context.Context, id string) error {
	params := oauth1.NewParams("id", id)
	auth, err := c.userAuth("unlike", http.MethodPost, params)
	if err != nil {
		return err
	}

	_, err = c.send(ctx, "unlike", http.MethodPost, destroyFavorite, params, auth)
	return err
}

func (c *Client) fetchTimeline(ctx context.Context, route, pathFmt string, params oauth1.Params) ([]Tweet, error) {
	auth, err := c.userAuth(route, http.MethodGet, params)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf(pathFmt, url.PathEscape(c.user.ID))
	body, err := c.send(ctx, route, http.MethodGet, path, params, auth)
	if err != nil {
		return nil, err
	}

	var resp TweetsResponse
	if err := c.decode(path, body, &resp); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched batch", map[string]interface{}{
		"endpoint": path,
		"count":    len(resp.Data),
	})
	return resp.Data, nil
}

// authorizer produces the Authorization header for one attempt at endpoint
type authorizer func(endpoint string) string

func (c *Client) bearer(string) string {
	return "Bearer " + c.app.APIKey
}

// oauth signs with an explicit token pair; every attempt gets a fresh nonce
func (c *Client) oauth(method string, params oauth1.Params, token, secret string) authorizer {
	return func(endpoint string) string {
		return c.signer.Sign(method, endpoint, params, token, secret)
	}
}

// userAuth signs with the logged in user's token pair
func (c *Client) userAuth(op, method string, params oauth1.Params) (authorizer, error) {
	if c.user == nil {
		return nil, errs.SigningPrerequisiteMissing(op)
	}
	return c.oauth(method, params, c.user.OAuthToken, c.user.OAuthTokenSecret), nil
}

// send issues the request, retrying transient failures when configured.
// POSTs are retried on 429 only. route names the endpoint in metrics.
func (c *Client) send(ctx context.Context, route, method, path string, params oauth1.Params, auth authorizer) ([]byte, error) {
	endpoint := c.baseURL + path

	op := func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, route, method, endpoint, params, auth(endpoint))
	}
	if c.retry == nil {
		return op(ctx)
	}

	cfg := *c.retry
	if method != http.MethodGet {
		cfg.RetryIf = rateLimitedOnly
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		metrics.IncAPIRetry(route)
		if c.retry.OnRetry != nil {
			c.retry.OnRetry(attempt, err, delay)
		}
	}
	return retry.DoWithResult(ctx, op, &cfg)
}

// rateLimitedOnly retries a POST only when the server refused it with 429.
// A 5xx or a dropped connection may arrive after the post was already destroyed.
func rateLimitedOnly(err error) bool {
	var apiErr *errs.Error
	return errors.As(err, &apiErr) && apiErr.Type == errs.ErrorTypeRateLimit
}

// doRequest performs one HTTP exchange. The same params feed the signature and the query.
func (c *Client) doRequest(ctx context.Context, route, method, endpoint string, params oauth1.Params, authorization string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Network(err)
	}

	target := endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Err:     err,
		}
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   method,
			"endpoint": endpoint,
			"error":    err.Error(),
			"duration": duration,
		})
		metrics.ObserveRequest(route, 0)
		return nil, errs.Network(err)
	}
	defer resp.Body.Close()

	metrics.ObserveRequest(route, resp.StatusCode)
	logger.LogRequest(c.logger, method, endpoint, resp.StatusCode, duration)

	if err := c.checkResponseStatus(resp, endpoint); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return body, nil
}

// checkResponseStatus maps any non-2xx status to a transport error
func (c *Client) checkResponseStatus(resp *http.Response, endpoint string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := errs.Transport(resp.StatusCode, errorMessage(resp.StatusCode, body))

	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = retryAfterSeconds(resp.Header, time.Now())
		logger.LogRateLimit(c.logger, endpoint, time.Duration(apiErr.RetryAfter)*time.Second)
	}

	return apiErr
}

// errorMessage extracts a readable message from a v2 or 1.1 error body
func errorMessage(status int, body []byte) string {
	var v2 struct {
		Title  string     `json:"title"`
		Detail string     `json:"detail"`
		Errors []APIError `json:"errors"`
	}
	if json.Unmarshal(body, &v2) == nil {
		switch {
		case v2.Detail != "":
			return v2.Detail
		case len(v2.Errors) > 0:
			return v2.Errors[0].String()
		case v2.Title != "":
			return v2.Title
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return fmt.Sprintf("unexpected status code: %d", status)
}

// retryAfterSeconds reads Retry-After, falling back to x-rate-limit-reset
func retryAfterSeconds(h http.Header, now time.Time) int {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return secs
		}
	}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if reset, err := strconv.ParseInt(v, 10, 64); err == nil {
			if secs := reset - now.Unix(); secs > 0 {
				return int(secs)
			}
		}
	}
	return 0
}

// decode parses a JSON body into target
func (c *Client) decode(endpoint string, body []byte, target interface{}) error {
	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Err:     err,
		}
	}
	return nil
}

// parseTokenResponse reads a form encoded token response
func parseTokenResponse(body []byte, requireSecret bool) (*TokenPair, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse token response: %v", err),
			Err:     err,
		}
	}

	pair := &TokenPair{
		Token:      values.Get("oauth_token"),
		Secret:     values.Get("oauth_token_secret"),
		UserID:     values.Get("user_id"),
		ScreenName: values.Get("screen_name"),
	}
	if pair.Token == "" {
		return nil, errs.CredentialExchangeFailed("oauth_token")
	}
	if requireSecret && pair.Secret == "" {
		return nil, errs.CredentialExchangeFailed("oauth_token_secret")
	}
	return pair, nil
}
