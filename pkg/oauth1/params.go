package oauth1

import (
	"sort"
	"strings"
)

// Param is a single raw (unencoded) key/value pair
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter list. The same value is used to build the
// signature base string and the query string sent on the wire, so the two
// can never disagree.
type Params []Param

// NewParams builds Params from alternating key, value arguments.
// A trailing key without a value is ignored.
func NewParams(kv ...string) Params {
	p := make(Params, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		p = append(p, Param{Key: kv[i], Value: kv[i+1]})
	}
	return p
}

// Add returns p with key=value appended
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value for key, or "" when absent
func (p Params) Get(key string) string {
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}
	return ""
}

// encodedPairs percent-encodes every pair once and sorts them by key, then value
func (p Params) encodedPairs() []Param {
	pairs := make([]Param, len(p))
	for i, param := range p {
		pairs[i] = Param{Key: PercentEncode(param.Key), Value: PercentEncode(param.Value)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Key != pairs[j].Key {
			return pairs[i].Key < pairs[j].Key
		}
		return pairs[i].Value < pairs[j].Value
	})
	return pairs
}

// Encode renders p as a sorted, percent-encoded k=v&k=v string.
// It is both the OAuth parameter string and a valid URL query.
func (p Params) Encode() string {
	pairs := p.encodedPairs()
	parts := make([]string, len(pairs))
	for i, pair := range pairs {
		parts[i] = pair.Key + "=" + pair.Value
	}
	return strings.Join(parts, "&")
}
