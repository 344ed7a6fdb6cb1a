package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keychainmdip/dex-market/internal/adapter"
	"github.com/keychainmdip/dex-market/internal/api/middleware"
	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/keymaster"
	"github.com/keychainmdip/dex-market/internal/market"
	"github.com/keychainmdip/dex-market/internal/store"
)

const (
	testOwner = domain.DID("did:test:owner")
	testAlice = domain.DID("did:test:alice")
	testBob   = domain.DID("did:test:bob")
)

type apiFixture struct {
	t        *testing.T
	router   *gin.Engine
	engine   *market.Engine
	km       keymaster.Client
	sessions *auth.Sessions
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := adapter.NewClock()
	km := keymaster.NewLocalClient()
	engine := market.NewEngine(market.Config{
		Store:     store.NewMemoryStore(),
		Keymaster: km,
		Policy:    auth.Policy{OwnerDID: testOwner},
		Clock:     clock,
		Custodian: testOwner,
	})
	sessions := auth.NewSessions("test-secret", time.Hour, clock)
	challenges := auth.NewChallengeTable(10*time.Minute, 64, clock)

	handler := NewHandler(Config{
		Engine:        engine,
		Keymaster:     km,
		Sessions:      sessions,
		Challenges:    challenges,
		LoginCallback: "http://localhost:3000/api/v1/login",
	})

	router := gin.New()
	router.Use(middleware.Identity(sessions))
	SetupRoutes(router, handler)

	return &apiFixture{t: t, router: router, engine: engine, km: km, sessions: sessions}
}

func (f *apiFixture) do(method, path string, body []byte, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// sessionCookie logs a DID in through the engine and returns its cookie
func (f *apiFixture) sessionCookie(did domain.DID) *http.Cookie {
	f.t.Helper()
	_, err := f.engine.Login(f.t.Context(), did)
	require.NoError(f.t, err)
	token, err := f.sessions.IssueSession(did)
	require.NoError(f.t, err)
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

func jsonBody(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestChallengeLoginCheckAuthFlow(t *testing.T) {
	f := newAPIFixture(t)

	// Browser asks for a challenge and keeps the cookie
	w := f.do(http.MethodPost, "/api/v1/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var challengeResp struct {
		Challenge domain.DID `json:"challenge"`
		URL       string     `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &challengeResp))
	assert.NotEmpty(t, challengeResp.URL)

	var challengeCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.ChallengeCookie {
			challengeCookie = cookie
		}
	}
	require.NotNil(t, challengeCookie)

	// Before the wallet answers, polling reports unauthenticated
	w = f.do(http.MethodGet, "/api/v1/check-auth", nil, challengeCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	// The wallet posts its response (no cookies on this leg)
	response := fmt.Sprintf(`{"challenge":%q,"responder":%q}`, challengeResp.Challenge, testAlice)
	w = f.do(http.MethodPost, "/api/v1/login", jsonBody(t, gin.H{"response": response}))
	require.Equal(t, http.StatusOK, w.Code)

	// Polling again completes the login and sets a session cookie
	w = f.do(http.MethodGet, "/api/v1/check-auth", nil, challengeCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)

	var sessionCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.SessionCookie && cookie.Value != "" {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)

	// The session cookie authenticates profile access
	w = f.do(http.MethodGet, "/api/v1/profile", nil, sessionCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(testAlice))
}

func TestLoginRejectsBadResponse(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/login", jsonBody(t, gin.H{"response": "garbage"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/v1/login", jsonBody(t, gin.H{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	f := newAPIFixture(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPost, "/api/v1/credits"},
		{http.MethodPost, "/api/v1/collections"},
		{http.MethodPost, "/api/v1/assets/did:test:x/mint"},
	} {
		w := f.do(route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}
}

func TestUploadMintBuyOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.sessionCookie(testAlice)
	bob := f.sessionCookie(testBob)

	// Find Alice's default collection
	user, err := f.engine.GetUser(t.Context(), testAlice)
	require.NoError(t, err)
	collection := user.Collections[0]

	// Upload
	w := f.do(http.MethodPost, "/api/v1/collections/"+collection.String()+"/upload?title=Skyline", testPNG(t), alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var uploadResp struct {
		DID domain.DID `json:"did"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploadResp))

	// Mint 2 editions
	w = f.do(http.MethodPost, "/api/v1/assets/"+uploadResp.DID.String()+"/mint",
		jsonBody(t, gin.H{"editions": 2, "royalty": 10, "license": "CC0"}), alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var matrix domain.MatrixDoc
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matrix))
	require.NotNil(t, matrix.Minted)
	require.Len(t, matrix.Minted.Tokens, 2)
	token := matrix.Minted.Tokens[0]

	// List edition 1 for 100 credits
	w = f.do(http.MethodPost, "/api/v1/assets/"+token.String()+"/price",
		jsonBody(t, gin.H{"price": 100}), alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Bob buys it
	w = f.do(http.MethodPost, "/api/v1/assets/"+token.String()+"/buy", nil, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bought domain.TokenDoc
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bought))
	assert.Equal(t, testBob, bought.Owner)
	assert.Zero(t, bought.Price)

	// Alice cannot buy her own remaining edition
	w = f.do(http.MethodPost, "/api/v1/assets/"+matrix.Minted.Tokens[1].String()+"/buy", nil, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.sessionCookie(testAlice)
	bob := f.sessionCookie(testBob)

	user, err := f.engine.GetUser(t.Context(), testAlice)
	require.NoError(t, err)
	collection := user.Collections[0]

	w := f.do(http.MethodPost, "/api/v1/collections/"+collection.String()+"/upload?title=X", testPNG(t), alice)
	require.Equal(t, http.StatusOK, w.Code)
	var uploadResp struct {
		DID domain.DID `json:"did"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploadResp))

	// Validation error: editions out of range -> 400
	w = f.do(http.MethodPost, "/api/v1/assets/"+uploadResp.DID.String()+"/mint",
		jsonBody(t, gin.H{"editions": 101, "royalty": 0, "license": "CC0"}), alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_failed")

	// Forbidden: Bob minting Alice's matrix -> 403
	w = f.do(http.MethodPost, "/api/v1/assets/"+uploadResp.DID.String()+"/mint",
		jsonBody(t, gin.H{"editions": 1, "royalty": 0, "license": "CC0"}), bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Insufficient funds -> 403 with its own code
	w = f.do(http.MethodPost, "/api/v1/assets/"+uploadResp.DID.String()+"/mint",
		jsonBody(t, gin.H{"editions": 100, "royalty": 0, "license": "CC0"}), alice)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_funds")

	// Not found -> 404
	w = f.do(http.MethodGet, "/api/v1/assets/did:test:missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Malformed DID -> 400
	w = f.do(http.MethodGet, "/api/v1/assets/garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.sessionCookie(testOwner)
	alice := f.sessionCookie(testAlice)

	// Owner lists users
	w := f.do(http.MethodGet, "/api/v1/users", nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(testAlice))

	// Member cannot
	w = f.do(http.MethodGet, "/api/v1/users", nil, alice)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Owner promotes Alice
	w = f.do(http.MethodPut, "/api/v1/users/"+testAlice.String()+"/role",
		jsonBody(t, gin.H{"role": "Admin"}), owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Admin")
}

func TestCreditsAndRates(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.sessionCookie(testAlice)

	w := f.do(http.MethodPost, "/api/v1/credits", jsonBody(t, gin.H{"amount": 250}), alice)
	require.Equal(t, http.StatusOK, w.Code)
	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, int64(market.DefaultStartingCredits+250), user.Credits)

	w = f.do(http.MethodGet, "/api/v1/rates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storageRate")

	w = f.do(http.MethodGet, "/api/v1/licenses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CC0")
}

func TestBlobFetch(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.sessionCookie(testAlice)

	user, err := f.engine.GetUser(t.Context(), testAlice)
	require.NoError(t, err)
	w := f.do(http.MethodPost, "/api/v1/collections/"+user.Collections[0].String()+"/upload", testPNG(t), alice)
	require.Equal(t, http.StatusOK, w.Code)
	var uploadResp struct {
		DID domain.DID `json:"did"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uploadResp))

	matrix, err := f.engine.GetMatrix(t.Context(), uploadResp.DID)
	require.NoError(t, err)

	w = f.do(http.MethodGet, "/api/v1/ipfs/"+matrix.Image.CID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "image/"))
	assert.Equal(t, testPNG(t), w.Body.Bytes())
}

func TestResolveDID(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.sessionCookie(testAlice)

	user, err := f.engine.GetUser(t.Context(), testAlice)
	require.NoError(t, err)
	collectionDID := user.Collections[0]

	// Any known DID resolves to its raw document
	w := f.do(http.MethodGet, "/api/v1/did/"+collectionDID.String(), nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Kind       string `json:"kind"`
		Collection struct {
			Owner domain.DID `json:"owner"`
		} `json:"collection"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "collection", doc.Kind)
	assert.Equal(t, testAlice, doc.Collection.Owner)

	// Resolution is a public read
	w = f.do(http.MethodGet, "/api/v1/did/"+collectionDID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/did/did:local:missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/did/garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.sessionCookie(testAlice)

	w := f.do(http.MethodPost, "/api/v1/logout", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)

	cleared := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.SessionCookie && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
