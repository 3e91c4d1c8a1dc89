package oauth1

import (
	"math/rand"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Values from the X developer documentation "Creating a signature" walkthrough
const (
	docConsumerKey    = "xvz1evFS4wEEPTGEFPHBog"
	docConsumerSecret = "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw"
	docToken          = "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb"
	docTokenSecret    = "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE"
	docNonce          = "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"
	docTimestamp      = 1318622958
	docURL            = "https://api.twitter.com/1.1/statuses/update.json"
)

func docSigner() *Signer {
	return NewSigner(docConsumerKey, docConsumerSecret,
		WithClock(func() time.Time { return time.Unix(docTimestamp, 0) }),
		WithNonce(func() string { return docNonce }),
	)
}

func docParams() Params {
	return NewParams(
		"status", "Hello Ladies + Gentlemen, a signed OAuth request!",
		"include_entities", "true",
	)
}

func TestSignGolden(t *testing.T) {
	got := docSigner().Sign("POST", docURL, docParams(), docToken, docTokenSecret)

	want := "OAuth oauth_consumer_key=xvz1evFS4wEEPTGEFPHBog," +
		"oauth_nonce=kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg," +
		"oauth_signature=hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D," +
		"oauth_signature_method=HMAC-SHA1," +
		"oauth_timestamp=1318622958," +
		"oauth_token=370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb," +
		"oauth_version=1.0"
	assert.Equal(t, want, got)
}

func TestBaseStringGolden(t *testing.T) {
	s := docSigner()
	all := append(docParams(), s.oauthParams(docToken)...)

	want := "POST&https%3A%2F%2Fapi.twitter.com%2F1.1%2Fstatuses%2Fupdate.json&" +
		"include_entities%3Dtrue%26oauth_consumer_key%3Dxvz1evFS4wEEPTGEFPHBog%26" +
		"oauth_nonce%3DkYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg%26" +
		"oauth_signature_method%3DHMAC-SHA1%26oauth_timestamp%3D1318622958%26" +
		"oauth_token%3D370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb%26" +
		"oauth_version%3D1.0%26" +
		"status%3DHello%2520Ladies%2520%252B%2520Gentlemen%252C%2520a%2520signed%2520OAuth%2520request%2521"
	assert.Equal(t, want, BaseString("post", docURL, all))

	assert.Equal(t, "hCtSmYh+iHYCEqBWrE7C7hYmtUk=", Signature(want, docConsumerSecret, docTokenSecret))
}

func TestSignDeterministicWithFixedInputs(t *testing.T) {
	s := docSigner()
	first := s.Sign("GET", docURL, docParams(), docToken, docTokenSecret)
	second := s.Sign("GET", docURL, docParams(), docToken, docTokenSecret)
	assert.Equal(t, first, second)
}

func TestSignFreshNonceEachCall(t *testing.T) {
	s := NewSigner("ck", "cs", WithClock(func() time.Time { return time.Unix(1, 0) }))
	first := s.Sign("POST", docURL, nil, "t", "ts")
	second := s.Sign("POST", docURL, nil, "t", "ts")
	assert.NotEqual(t, first, second)
}

func TestRandomNonceIs128Bits(t *testing.T) {
	n := randomNonce()
	assert.Len(t, n, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", n)
}

func TestBaseStringOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 50; i++ {
		params := randomParams(rng, 1+rng.Intn(8))
		shuffled := append(Params(nil), params...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		assert.Equal(t, BaseString("GET", docURL, params), BaseString("GET", docURL, shuffled))
	}
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ladies + Gentlemen", "Ladies%20%2B%20Gentlemen"},
		{"An encoded string!", "An%20encoded%20string%21"},
		{"Dogs, Cats & Mice", "Dogs%2C%20Cats%20%26%20Mice"},
		{"☃", "%E2%98%83"},
		{"2022-01-01T00:00:00Z", "2022-01-01T00%3A00%3A00Z"},
		{"created_at,public_metrics", "created_at%2Cpublic_metrics"},
		{"a-b.c_d~e", "a-b.c_d~e"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentEncode(tt.in))
		})
	}
}

func TestPercentEncodeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		raw := make([]byte, rng.Intn(40))
		rng.Read(raw)

		decoded, err := url.PathUnescape(PercentEncode(string(raw)))
		require.NoError(t, err)
		assert.Equal(t, string(raw), decoded)
	}
}

func TestParamsEncodeIsValidQuery(t *testing.T) {
	p := NewParams(
		"tweet.fields", "created_at,public_metrics,attachments",
		"start_time", "2022-01-01T00:00:00Z",
		"max_results", "100",
	)

	encoded := p.Encode()
	assert.Equal(t, "max_results=100&start_time=2022-01-01T00%3A00%3A00Z&tweet.fields=created_at%2Cpublic_metrics%2Cattachments", encoded)

	values, err := url.ParseQuery(encoded)
	require.NoError(t, err)
	assert.Equal(t, "2022-01-01T00:00:00Z", values.Get("start_time"))
	assert.Equal(t, "created_at,public_metrics,attachments", values.Get("tweet.fields"))
}

func TestParamsSortTieBreaksOnValue(t *testing.T) {
	p := NewParams("a", "z", "a", "b", "A", "c")
	assert.Equal(t, "A=c&a=b&a=z", p.Encode())
}

func TestNewRequestQueryURL(t *testing.T) {
	req := docSigner().NewRequest("GET", "https://api.twitter.com/2/users/1/tweets", NewParams("max_results", "100"), "t", "s")

	assert.Equal(t, "https://api.twitter.com/2/users/1/tweets?max_results=100", req.QueryURL())
	assert.True(t, strings.HasPrefix(req.Authorization, "OAuth oauth_consumer_key="))

	bare := SignedRequest{URL: "https://api.twitter.com/1.1/statuses/destroy/1.json"}
	assert.Equal(t, bare.URL, bare.QueryURL())
}

func TestSigningKeyEmptyTokenSecret(t *testing.T) {
	assert.Equal(t, "c%26s&", SigningKey("c&s", ""))
}

func randomParams(rng *rand.Rand, n int) Params {
	const alphabet = "abcXYZ019 -._~!*'();:@&=+$,/?#[]%"
	word := func() string {
		b := make([]byte, 1+rng.Intn(10))
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(b)
	}
	p := make(Params, 0, n)
	for i := 0; i < n; i++ {
		p = p.Add(word(), word())
	}
	return p
}

func TestSignProtocolParamOnQuerySignedOnce(t *testing.T) {
	s := docSigner()
	withToken := NewParams("oauth_token", docToken, "oauth_verifier", "000000")
	without := NewParams("oauth_verifier", "000000")

	assert.Equal(t,
		s.Sign("POST", docURL, without, docToken, docTokenSecret),
		s.Sign("POST", docURL, withToken, docToken, docTokenSecret),
	)
}
