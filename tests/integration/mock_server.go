package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"magpie/pkg/twitter"
)

// MockTwitterServer simulates the Twitter v2 API, the media CDN and the
// OAuth2 token endpoint behind one httptest server.
type MockTwitterServer struct {
	server *httptest.Server

	mu             sync.RWMutex
	users          map[string]twitter.User  // keyed by user id
	usersByName    map[string]twitter.User  // keyed by username
	likedPages     map[string]*twitter.Page // keyed by pagination cursor, "" is the first page
	photos         map[string][]byte        // keyed by URL path
	errorResponses map[string]int           // endpoint path prefix to status code
	delays         map[string]time.Duration

	requestCount  int32
	tokenRequests int32
}

// NewMockTwitterServer creates a mock API server with no data; populate
// it with AddUser, SetLikedPages and AddPhoto.
func NewMockTwitterServer() *MockTwitterServer {
	m := &MockTwitterServer{
		users:          make(map[string]twitter.User),
		usersByName:    make(map[string]twitter.User),
		likedPages:     make(map[string]*twitter.Page),
		photos:         make(map[string][]byte),
		errorResponses: make(map[string]int),
		delays:         make(map[string]time.Duration),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", m.handleMe)
	mux.HandleFunc("/users/by/username/", m.handleUserByUsername)
	mux.HandleFunc("/users/", m.handleUsers)
	mux.HandleFunc("/media/", m.handlePhoto)
	mux.HandleFunc("/oauth2/token", m.handleToken)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL of the mock server
func (m *MockTwitterServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server
func (m *MockTwitterServer) Close() {
	m.server.Close()
}

// AddUser registers a user for lookup by id and username. The first
// user added also answers the /users/me endpoint.
func (m *MockTwitterServer) AddUser(user twitter.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.users) == 0 {
		m.users["me"] = user
	}
	m.users[user.ID] = user
	m.usersByName[user.Username] = user
}

// SetLikedPages installs the scripted pagination sequence. The empty
// cursor keys the first page.
func (m *MockTwitterServer) SetLikedPages(pages map[string]*twitter.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likedPages = pages
}

// AddPhoto serves the given bytes at /media/<name>. The full URL is
// returned for embedding in page fixtures.
func (m *MockTwitterServer) AddPhoto(name string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos["/media/"+name] = data
	return m.server.URL + "/media/" + name
}

// SetErrorResponse makes every request whose path starts with the given
// prefix fail with the status code.
func (m *MockTwitterServer) SetErrorResponse(pathPrefix string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[pathPrefix] = code
}

// SetDelay delays responses on paths with the given prefix
func (m *MockTwitterServer) SetDelay(pathPrefix string, delay time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[pathPrefix] = delay
}

// RequestCount returns how many API requests the server has seen
func (m *MockTwitterServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// TokenRequests returns how many token exchanges were attempted
func (m *MockTwitterServer) TokenRequests() int {
	return int(atomic.LoadInt32(&m.tokenRequests))
}

func (m *MockTwitterServer) intercept(w http.ResponseWriter, r *http.Request) bool {
	atomic.AddInt32(&m.requestCount, 1)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for prefix, delay := range m.delays {
		if strings.HasPrefix(r.URL.Path, prefix) {
			time.Sleep(delay)
		}
	}
	for prefix, code := range m.errorResponses {
		if strings.HasPrefix(r.URL.Path, prefix) {
			w.WriteHeader(code)
			return true
		}
	}
	return false
}

func (m *MockTwitterServer) handleMe(w http.ResponseWriter, r *http.Request) {
	if m.intercept(w, r) {
		return
	}

	m.mu.RLock()
	user, ok := m.users["me"]
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, twitter.UserResponse{Data: &user})
}

func (m *MockTwitterServer) handleUserByUsername(w http.ResponseWriter, r *http.Request) {
	if m.intercept(w, r) {
		return
	}

	username := strings.TrimPrefix(r.URL.Path, "/users/by/username/")
	m.mu.RLock()
	user, ok := m.usersByName[username]
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, twitter.UserResponse{Data: &user})
}

// handleUsers serves both /users/<id> lookups and the liked-tweets
// pagination under /users/<id>/liked_tweets.
func (m *MockTwitterServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if m.intercept(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/users/")
	if strings.HasSuffix(rest, "/liked_tweets") {
		m.serveLikedPage(w, r)
		return
	}

	m.mu.RLock()
	user, ok := m.users[rest]
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, twitter.UserResponse{Data: &user})
}

func (m *MockTwitterServer) serveLikedPage(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("pagination_token")

	m.mu.RLock()
	page, ok := m.likedPages[cursor]
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"errors":[{"title":"Invalid Request","detail":"unknown pagination_token %s"}]}`, cursor)
		return
	}
	writeJSON(w, page)
}

func (m *MockTwitterServer) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if m.intercept(w, r) {
		return
	}

	m.mu.RLock()
	data, ok := m.photos[r.URL.Path]
	m.mu.RUnlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

func (m *MockTwitterServer) handleToken(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.tokenRequests, 1)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.Form.Get("code") == "" || r.Form.Get("code_verifier") == "" {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"error": "invalid_request"})
		return
	}

	writeJSON(w, map[string]interface{}{
		"access_token": "mock-access-token",
		"token_type":   "bearer",
		"expires_in":   7200,
		"scope":        "tweet.read users.read like.read",
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
