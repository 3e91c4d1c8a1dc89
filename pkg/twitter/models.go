package twitter

// Tweet is a post (or a liked post) as returned by the v2 timeline endpoints
type Tweet struct {
	ID            string         `json:"id"`
	Text          string         `json:"text,omitempty"`
	CreatedAt     string         `json:"created_at,omitempty"`
	PublicMetrics *PublicMetrics `json:"public_metrics,omitempty"`
	Attachments   *Attachments   `json:"attachments,omitempty"`
}

// PublicMetrics holds engagement counters
type PublicMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// Attachments lists media attached to a tweet
type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
}

// User is the subset of the v2 user object xpurge needs
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
}

// APIError is one entry of a v2 "errors" array
type APIError struct {
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
	Type   string `json:"type,omitempty"`
	// Message is used by the 1.1 endpoints
	Message string `json:"message,omitempty"`
}

func (e APIError) String() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	default:
		return e.Title
	}
}

// Meta carries v2 pagination info. xpurge always refetches the first page,
// so NextToken is informational only.
type Meta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token,omitempty"`
}

// UserResponse is the body of a user lookup
type UserResponse struct {
	Data   *User      `json:"data,omitempty"`
	Errors []APIError `json:"errors,omitempty"`
}

// TweetsResponse is the body of the tweets and liked_tweets endpoints
type TweetsResponse struct {
	Data   []Tweet    `json:"data,omitempty"`
	Meta   Meta       `json:"meta"`
	Errors []APIError `json:"errors,omitempty"`
}

// TokenPair is the result of a request-token or access-token exchange
type TokenPair struct {
	Token  string
	Secret string
	// UserID and ScreenName are set by the access-token endpoint
	UserID     string
	ScreenName string
}
