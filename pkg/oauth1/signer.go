package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"
)

// Signer produces OAuth 1.0a HMAC-SHA1 Authorization header values for one consumer
type Signer struct {
	consumerKey    string
	consumerSecret string
	nowFn          func() time.Time
	nonceFn        func() string
}

// Option configures a Signer
type Option func(*Signer)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.nowFn = now }
}

// WithNonce overrides the nonce source
func WithNonce(nonce func() string) Option {
	return func(s *Signer) { s.nonceFn = nonce }
}

// NewSigner creates a Signer for the given consumer credentials
func NewSigner(consumerKey, consumerSecret string, opts ...Option) *Signer {
	s := &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		nowFn:          time.Now,
		nonceFn:        randomNonce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// randomNonce returns 128 random bits as 32 hex characters
func randomNonce() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// SignedRequest is a single-use signed call. URL is the endpoint without a
// query; Params carries the endpoint parameters that go on the wire.
type SignedRequest struct {
	Method        string
	URL           string
	Params        Params
	Authorization string
}

// QueryURL returns the URL with Params appended as its query string
func (r SignedRequest) QueryURL() string {
	if len(r.Params) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Params.Encode()
}

// NewRequest signs method+url+params and bundles the result
func (s *Signer) NewRequest(method, url string, params Params, token, tokenSecret string) SignedRequest {
	return SignedRequest{
		Method:        method,
		URL:           url,
		Params:        params,
		Authorization: s.Sign(method, url, params, token, tokenSecret),
	}
}

// Sign returns the Authorization header value for the request. Every call
// draws a fresh nonce and timestamp, so two calls never yield the same value.
func (s *Signer) Sign(method, url string, params Params, token, tokenSecret string) string {
	method = strings.ToUpper(method)
	oauth := s.oauthParams(token)

	all := make(Params, 0, len(params)+len(oauth))
	for _, p := range params {
		// protocol parameters repeated on the query are signed once
		if oauth.Get(p.Key) != "" {
			continue
		}
		all = append(all, p)
	}
	all = append(all, oauth...)

	base := BaseString(method, url, all)
	signature := Signature(base, s.consumerSecret, tokenSecret)

	return header(oauth, signature)
}

// oauthParams returns the protocol parameters in header order, without the signature
func (s *Signer) oauthParams(token string) Params {
	return NewParams(
		"oauth_consumer_key", s.consumerKey,
		"oauth_nonce", s.nonceFn(),
		"oauth_signature_method", SignatureMethod,
		"oauth_timestamp", strconv.FormatInt(s.nowFn().Unix(), 10),
		"oauth_token", token,
		"oauth_version", Version,
	)
}

// BaseString builds METHOD&enc(url)&enc(sorted parameter string)
func BaseString(method, url string, params Params) string {
	return strings.ToUpper(method) + "&" + PercentEncode(url) + "&" + PercentEncode(params.Encode())
}

// SigningKey builds enc(consumerSecret)&enc(tokenSecret). tokenSecret may be empty.
func SigningKey(consumerSecret, tokenSecret string) string {
	return PercentEncode(consumerSecret) + "&" + PercentEncode(tokenSecret)
}

// Signature returns base64(HMAC-SHA1(key, base)), not yet percent-encoded
func Signature(base, consumerSecret, tokenSecret string) string {
	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// header renders the OAuth header with oauth_signature slotted into sorted position
func header(oauth Params, signature string) string {
	fields := make([]string, 0, len(oauth)+1)
	for _, p := range oauth {
		if p.Key == "oauth_signature_method" {
			fields = append(fields, "oauth_signature="+PercentEncode(signature))
		}
		fields = append(fields, p.Key+"="+PercentEncode(p.Value))
	}
	return "OAuth " + strings.Join(fields, ",")
}
