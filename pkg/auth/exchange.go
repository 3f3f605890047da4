package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	apperrors "magpie/pkg/errors"
)

// OAuth2 endpoints for the Twitter v2 API
const (
	AuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	TokenURL     = "https://api.twitter.com/2/oauth2/token"
)

// Scopes are the minimal read-only scopes the pipeline needs
var Scopes = []string{"tweet.read", "users.read", "like.read"}

// AuthorizationState is the output of BeginLogin. It is single use:
// one state per login attempt, consumed exactly once by the token
// exchange, never reused.
type AuthorizationState struct {
	// URL is the provider authorization URL the user's browser opens
	URL string

	// State is the anti-forgery token round-tripped through the
	// redirect. The caller must compare it against the callback's
	// state before exchanging the code.
	State string

	// Verifier is the PKCE code verifier matching the challenge
	// embedded in URL. Held locally, never sent on the redirect.
	Verifier string
}

// Exchanger performs the OAuth2 Authorization-Code-with-PKCE exchange
type Exchanger struct {
	config *oauth2.Config
}

// NewExchanger creates an Exchanger for the given OAuth application.
// The redirect URL must match the app's registered callback exactly.
func NewExchanger(clientID, clientSecret string, callbackPort int) *Exchanger {
	return &Exchanger{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  fmt.Sprintf("http://localhost:%d/oauth2/callback", callbackPort),
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   AuthorizeURL,
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

// SetEndpoint overrides the provider endpoints. Used by tests.
func (e *Exchanger) SetEndpoint(authURL, tokenURL string) {
	e.config.Endpoint.AuthURL = authURL
	e.config.Endpoint.TokenURL = tokenURL
}

// BeginLogin generates a fresh PKCE verifier and anti-forgery state
// and builds the authorization URL. Each call produces new random
// values; a verifier is never reused across attempts.
func (e *Exchanger) BeginLogin() *AuthorizationState {
	verifier := oauth2.GenerateVerifier()
	state := uuid.NewString()
	url := e.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return &AuthorizationState{
		URL:      url,
		State:    state,
		Verifier: verifier,
	}
}

// CompleteLogin exchanges the authorization code and PKCE verifier for
// an access token. A given (code, verifier) pair can be exchanged only
// once; the provider rejects replays and this is not retried.
func (e *Exchanger) CompleteLogin(ctx context.Context, code, verifier string) (string, error) {
	token, err := e.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindTokenExchange, "exchanging authorization code", err)
	}
	if token.AccessToken == "" {
		return "", apperrors.New(apperrors.KindTokenExchange, "provider returned an empty access token")
	}
	return token.AccessToken, nil
}
