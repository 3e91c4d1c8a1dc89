package credential

import (
	"fmt"
	"io"
	"strings"
)

// ShowAppKeysGuide explains where the application credentials come from
func ShowAppKeysGuide(w io.Writer) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "X API APPLICATION KEYS")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "xpurge acts on your account through an X developer app you own.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "STEP 1: Create a project and app at https://developer.x.com/en/portal/dashboard")
	fmt.Fprintln(w, "STEP 2: Under 'User authentication settings' enable OAuth 1.0a with")
	fmt.Fprintln(w, "        Read and write permissions")
	fmt.Fprintln(w, "STEP 3: From 'Keys and tokens' copy the API Key, API Key Secret and")
	fmt.Fprintln(w, "        Bearer Token")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Then either export them:")
	fmt.Fprintln(w, "   export XPURGE_CONSUMER_KEY=...")
	fmt.Fprintln(w, "   export XPURGE_CONSUMER_SECRET=...")
	fmt.Fprintln(w, "   export XPURGE_BEARER_TOKEN=...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "or put the same lines (without 'export') in ~/.xpurge.env, or set")
	fmt.Fprintln(w, "api.consumer_key, api.consumer_secret and api.bearer_token in .xpurge.yaml.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Finally run 'xpurge login' to authorize the app for your account.")
	fmt.Fprintln(w, rule)
}
