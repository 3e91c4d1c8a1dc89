// Package oauth1 implements the OAuth 1.0a HMAC-SHA1 request signature used
// by the X API user-context endpoints.
//
// Endpoint parameters are collected in a Params value. The Signer merges them
// with the oauth_* protocol parameters, builds the signature base string and
// renders the Authorization header. The same Params then become the request's
// query string through Params.Encode, so the signed and sent parameters are
// always identical.
//
//	signer := oauth1.NewSigner(consumerKey, consumerSecret)
//	req := signer.NewRequest("GET", "https://api.twitter.com/2/users/1/tweets",
//	    oauth1.NewParams("max_results", "100"), token, tokenSecret)
//	httpReq, _ := http.NewRequest(req.Method, req.QueryURL(), nil)
//	httpReq.Header.Set("Authorization", req.Authorization)
package oauth1
