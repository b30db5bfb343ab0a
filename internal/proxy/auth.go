package proxy

import (
	"encoding/base64"
	"strings"
	"unicode"

	"storefront-proxy/internal/config"
)

// credentialFunc produces an Authorization header value, or reports that
// the credentials for its rule are not configured.
type credentialFunc func() (string, bool)

// authRule pairs a path matcher with a credential provider. Rules are
// evaluated top-to-bottom; the first match decides the header.
type authRule struct {
	match      func(path string) bool
	credential credentialFunc
}

// AuthResolver decides which Authorization header an upstream path gets.
//
// The upstream WordPress REST namespaces want different schemes: the
// WooCommerce namespaces (/wc/v3, /wc-analytics, ...) take consumer
// key/secret Basic auth, the core /wp/v2 namespace takes an Application
// Password. Substring matching is a heuristic, but the set of upstream
// paths in use is controlled and it avoids a route table per endpoint.
type AuthResolver struct {
	rules []authRule
}

// NewAuthResolver builds the rule list from the loaded credentials.
func NewAuthResolver(cfg *config.Config) *AuthResolver {
	wc := cfg.WooCommerce
	wp := cfg.WordPress

	return &AuthResolver{
		rules: []authRule{
			{
				match: func(path string) bool { return strings.Contains(path, "/wc") },
				credential: func() (string, bool) {
					if wc.ConsumerKey == "" || wc.ConsumerSecret == "" {
						return "", false
					}
					return basicAuth(wc.ConsumerKey, wc.ConsumerSecret), true
				},
			},
			{
				match: func(path string) bool { return strings.Contains(path, "/wp/") },
				credential: func() (string, bool) {
					if wp.AppUser == "" || wp.AppPass == "" {
						return "", false
					}
					// WordPress displays app passwords with cosmetic
					// spaces that must be removed before use.
					return basicAuth(wp.AppUser, stripWhitespace(wp.AppPass)), true
				},
			},
		},
	}
}

// Authorization resolves the header for an upstream path. The second
// return is false when no rule matches or the matching rule's credentials
// are not configured - the request then goes out unauthenticated.
func (a *AuthResolver) Authorization(path string) (string, bool) {
	for _, rule := range a.rules {
		if rule.match(path) {
			return rule.credential()
		}
	}
	return "", false
}

// basicAuth encodes an HTTP Basic Authorization header value.
func basicAuth(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

// stripWhitespace removes all whitespace from s.
func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
