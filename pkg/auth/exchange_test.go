package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magpie/pkg/errors"
)

func TestBeginLogin(t *testing.T) {
	exchanger := NewExchanger("client-id", "client-secret", 49277)

	state := exchanger.BeginLogin()
	require.NotNil(t, state)
	assert.NotEmpty(t, state.State)
	assert.NotEmpty(t, state.Verifier)

	u, err := url.Parse(state.URL)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, state.State, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "http://localhost:49277/oauth2/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "like.read")

	// The verifier itself must never appear on the authorization URL
	assert.NotContains(t, state.URL, state.Verifier)
}

func TestBeginLoginProducesFreshValues(t *testing.T) {
	exchanger := NewExchanger("client-id", "client-secret", 49277)

	first := exchanger.BeginLogin()
	second := exchanger.BeginLogin()

	assert.NotEqual(t, first.State, second.State)
	assert.NotEqual(t, first.Verifier, second.Verifier)
	assert.NotEqual(t, first.URL, second.URL)
}

func TestCompleteLogin(t *testing.T) {
	t.Run("successful exchange", func(t *testing.T) {
		var gotCode, gotVerifier string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotCode = r.Form.Get("code")
			gotVerifier = r.Form.Get("code_verifier")

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "the-token",
				"token_type":   "bearer",
				"expires_in":   7200,
			})
		}))
		defer server.Close()

		exchanger := NewExchanger("client-id", "client-secret", 49277)
		exchanger.SetEndpoint(server.URL+"/authorize", server.URL+"/token")

		token, err := exchanger.CompleteLogin(context.Background(), "auth-code", "the-verifier")
		require.NoError(t, err)
		assert.Equal(t, "the-token", token)
		assert.Equal(t, "auth-code", gotCode)
		assert.Equal(t, "the-verifier", gotVerifier)
	})

	t.Run("provider rejects the code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		}))
		defer server.Close()

		exchanger := NewExchanger("client-id", "client-secret", 49277)
		exchanger.SetEndpoint(server.URL+"/authorize", server.URL+"/token")

		token, err := exchanger.CompleteLogin(context.Background(), "stale-code", "the-verifier")
		assert.Empty(t, token)
		assert.True(t, errors.IsKind(err, errors.KindTokenExchange))
	})

	t.Run("empty access token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "",
				"token_type":   "bearer",
			})
		}))
		defer server.Close()

		exchanger := NewExchanger("client-id", "client-secret", 49277)
		exchanger.SetEndpoint(server.URL+"/authorize", server.URL+"/token")

		token, err := exchanger.CompleteLogin(context.Background(), "auth-code", "the-verifier")
		assert.Empty(t, token)
		assert.True(t, errors.IsKind(err, errors.KindTokenExchange))
	})
}
