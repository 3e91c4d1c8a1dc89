package twitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name      string
		since     string
		until     string
		wantErr   bool
		wantStart string
		wantEnd   string
	}{
		{name: "unbounded"},
		{name: "since only", since: "2020-02-29", wantStart: "2020-02-29T00:00:00Z"},
		{name: "until only", until: "2021-01-01", wantEnd: "2021-01-01T00:00:00Z"},
		{name: "both", since: "2019-01-01", until: "2020-01-01", wantStart: "2019-01-01T00:00:00Z", wantEnd: "2020-01-01T00:00:00Z"},
		{name: "bad format", since: "01/02/2020", wantErr: true},
		{name: "impossible date", until: "2021-02-30", wantErr: true},
		{name: "reversed", since: "2021-01-01", until: "2020-01-01", wantErr: true},
		{name: "empty range", since: "2021-01-01", until: "2021-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWindow(tt.since, tt.until)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.StartTime())
			assert.Equal(t, tt.wantEnd, w.EndTime())
		})
	}
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "all time", Window{}.String())
	assert.Equal(t, "2020-01-01 to now", Window{Since: "2020-01-01"}.String())
	assert.Equal(t, "beginning to 2020-01-01", Window{Until: "2020-01-01"}.String())
}

func TestTweetsParams(t *testing.T) {
	p := tweetsParams(0, Window{Since: "2020-01-01"})
	assert.Equal(t, "100", p.Get("max_results"))
	assert.Equal(t, "2020-01-01T00:00:00Z", p.Get("start_time"))
	assert.Equal(t, "", p.Get("end_time"))

	assert.Equal(t, "25", timelineParams(25).Get("max_results"))
	assert.Equal(t, "100", timelineParams(500).Get("max_results"))
}

func TestPostURL(t *testing.T) {
	assert.Equal(t, "https://x.com/alice/status/42", PostURL("alice", "42"))
	assert.Equal(t, "https://x.com/i/web/status/42", PostURL("", "42"))
}
