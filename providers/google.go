package providers

import "time"

const (
	GoogleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL = "https://oauth2.googleapis.com/token"
)

// NewGoogleProvider returns a provider wired to Google's OAuth2 endpoints.
// Google accepts the client secret in the request body.
func NewGoogleProvider(opts ...func(*OAuth2Config)) (*OAuth2Provider, error) {
	cfg := OAuth2Config{
		AuthURL:             GoogleAuthURL,
		TokenURL:            GoogleTokenURL,
		ClientSecretInBody:  true,
		TokenRequestTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return NewOAuth2Provider(cfg)
}
