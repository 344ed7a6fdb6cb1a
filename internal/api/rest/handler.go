package rest

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keychainmdip/dex-market/internal/api/middleware"
	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/keymaster"
	"github.com/keychainmdip/dex-market/internal/market"
)

// Handler defines the REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// CreateChallenge issues a wallet login challenge
	// POST /api/v1/challenge
	CreateChallenge(c *gin.Context)

	// Login accepts a wallet's challenge response
	// POST /api/v1/login
	Login(c *gin.Context)

	// CheckAuth polls whether the browser's challenge has been answered
	// GET /api/v1/check-auth
	CheckAuth(c *gin.Context)

	// Logout clears the session
	// POST /api/v1/logout
	Logout(c *gin.Context)

	// GetProfile returns the authenticated user's record
	// GET /api/v1/profile
	GetProfile(c *gin.Context)

	// UpdateProfile edits the authenticated user's display fields
	// PUT /api/v1/profile
	UpdateProfile(c *gin.Context)

	// SetPFP uploads a new profile picture
	// POST /api/v1/profile/pfp
	SetPFP(c *gin.Context)

	// GetUser returns a user's public record
	// GET /api/v1/users/:did
	GetUser(c *gin.Context)

	// ListUsers returns every user record (admin only)
	// GET /api/v1/users
	ListUsers(c *gin.Context)

	// SetRole assigns a user's role (admin only)
	// PUT /api/v1/users/:did/role
	SetRole(c *gin.Context)

	// AddCredits tops up a balance; admins may target other users
	// POST /api/v1/credits
	AddCredits(c *gin.Context)

	// GetLicenses lists the accepted licenses and their deed URLs
	// GET /api/v1/licenses
	GetLicenses(c *gin.Context)

	// GetRates returns the configured marketplace rates
	// GET /api/v1/rates
	GetRates(c *gin.Context)

	// CreateCollection creates a new empty collection
	// POST /api/v1/collections
	CreateCollection(c *gin.Context)

	// GetCollection returns a collection document
	// GET /api/v1/collections/:did
	GetCollection(c *gin.Context)

	// UpdateCollection renames or (un)publishes a collection
	// PATCH /api/v1/collections/:did
	UpdateCollection(c *gin.Context)

	// DeleteCollection removes an empty collection
	// DELETE /api/v1/collections/:did
	DeleteCollection(c *gin.Context)

	// SortCollection reorders a collection's assets
	// POST /api/v1/collections/:did/sort
	SortCollection(c *gin.Context)

	// Upload stores an image as a new matrix in a collection
	// POST /api/v1/collections/:did/upload?title=...
	Upload(c *gin.Context)

	// GetAsset returns any asset document
	// GET /api/v1/assets/:did
	GetAsset(c *gin.Context)

	// UpdateAsset retitles or moves an unminted matrix
	// PATCH /api/v1/assets/:did
	UpdateAsset(c *gin.Context)

	// Mint mints a matrix into token editions
	// POST /api/v1/assets/:did/mint
	Mint(c *gin.Context)

	// Unmint removes a matrix's minted record
	// POST /api/v1/assets/:did/unmint
	Unmint(c *gin.Context)

	// SetPrice lists or delists a token
	// POST /api/v1/assets/:did/price
	SetPrice(c *gin.Context)

	// Buy purchases a listed token
	// POST /api/v1/assets/:did/buy
	Buy(c *gin.Context)

	// ResolveDID returns the raw document behind any DID
	// GET /api/v1/did/:did
	ResolveDID(c *gin.Context)

	// GetBlob streams a content-addressed blob
	// GET /api/v1/ipfs/:cid
	GetBlob(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// Config wires the REST handler's collaborators
type Config struct {
	Engine     *market.Engine
	Keymaster  keymaster.Client
	Sessions   *auth.Sessions
	Challenges *auth.ChallengeTable

	// LoginCallback is the URL a wallet posts its challenge response to
	LoginCallback string
}

type handler struct {
	engine     *market.Engine
	km         keymaster.Client
	sessions   *auth.Sessions
	challenges *auth.ChallengeTable
	callback   string
}

// NewHandler creates the REST API handler
func NewHandler(cfg Config) Handler {
	return &handler{
		engine:     cfg.Engine,
		km:         cfg.Keymaster,
		sessions:   cfg.Sessions,
		challenges: cfg.Challenges,
		callback:   cfg.LoginCallback,
	}
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// actor returns the authenticated DID; routes behind RequireAuth always
// have one
func actor(c *gin.Context) domain.DID {
	did, _ := middleware.Actor(c)
	return did
}

func pathDID(c *gin.Context) (domain.DID, bool) {
	did := domain.DID(c.Param("did"))
	if !did.Valid() {
		respondBadRequest(c, "Invalid DID")
		return "", false
	}
	return did, true
}

func (h *handler) CreateChallenge(c *gin.Context) {
	challenge, err := h.km.CreateChallenge(c.Request.Context(), h.callback)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	h.challenges.Open(challenge.DID)

	token, err := h.sessions.IssueChallenge(challenge.DID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	setCookie(c, auth.ChallengeCookie, token, int(h.sessions.TTL().Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"challenge": challenge.DID,
		"url":       challenge.URL,
	})
}

func (h *handler) Login(c *gin.Context) {
	var req struct {
		Response string `json:"response" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Challenge response is required", err.Error())
		return
	}

	verify, err := h.km.VerifyResponse(c.Request.Context(), req.Response)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if !verify.Match {
		respondUnauthorized(c, "Challenge response did not verify")
		return
	}

	h.challenges.Complete(verify.Challenge, verify.Responder)

	c.JSON(http.StatusOK, gin.H{"match": true})
}

func (h *handler) CheckAuth(c *gin.Context) {
	// Already authenticated
	if did, ok := middleware.Actor(c); ok {
		user, err := h.engine.GetUser(c.Request.Context(), did)
		if err != nil {
			respondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": true, "profile": user})
		return
	}

	cookie, err := c.Cookie(auth.ChallengeCookie)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	challenge, err := h.sessions.ParseChallenge(cookie)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	responder, ok := h.challenges.Responder(challenge)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	user, err := h.engine.Login(c.Request.Context(), responder)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	h.challenges.Drop(challenge)

	token, err := h.sessions.IssueSession(responder)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	setCookie(c, auth.SessionCookie, token, int(h.sessions.TTL().Seconds()))
	clearCookie(c, auth.ChallengeCookie)

	c.JSON(http.StatusOK, gin.H{"authenticated": true, "profile": user})
}

func (h *handler) Logout(c *gin.Context) {
	clearCookie(c, auth.SessionCookie)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) GetProfile(c *gin.Context) {
	user, err := h.engine.GetUser(c.Request.Context(), actor(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) UpdateProfile(c *gin.Context) {
	var req struct {
		Name    *string `json:"name"`
		Tagline *string `json:"tagline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid profile update", err.Error())
		return
	}

	user, err := h.engine.UpdateProfile(c.Request.Context(), actor(c), market.ProfileUpdate{
		Name:    req.Name,
		Tagline: req.Tagline,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) SetPFP(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		respondBadRequest(c, "Cannot read image", err.Error())
		return
	}

	user, err := h.engine.SetPFP(c.Request.Context(), actor(c), data)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) GetUser(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	user, err := h.engine.GetUser(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) ListUsers(c *gin.Context) {
	if !h.isAdmin(c) {
		return
	}
	users, err := h.engine.ListUsers(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// isAdmin checks the actor's admin capability, responding 403 on failure
func (h *handler) isAdmin(c *gin.Context) bool {
	user, err := h.engine.GetUser(c.Request.Context(), actor(c))
	if err != nil {
		respondDomainError(c, err)
		return false
	}
	if !h.engine.Policy().IsAdmin(user) {
		respondWithError(c, http.StatusForbidden, errCodeForbidden, "Admin access required")
		return false
	}
	return true
}

func (h *handler) SetRole(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	var req struct {
		Role domain.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Role is required", err.Error())
		return
	}

	user, err := h.engine.SetRole(c.Request.Context(), actor(c), did, req.Role)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) AddCredits(c *gin.Context) {
	var req struct {
		Amount int64      `json:"amount" binding:"required"`
		Target domain.DID `json:"target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Amount is required", err.Error())
		return
	}

	target := req.Target
	if target.Empty() {
		target = actor(c)
	}

	user, err := h.engine.AddCredits(c.Request.Context(), actor(c), target, req.Amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) GetLicenses(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Licenses)
}

func (h *handler) GetRates(c *gin.Context) {
	rates := h.engine.Rates()
	c.JSON(http.StatusOK, gin.H{
		"storageRate": rates.StorageRate,
		"editionRate": rates.EditionRate,
	})
}

func (h *handler) CreateCollection(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Collection name is required", err.Error())
		return
	}

	did, err := h.engine.CreateCollection(c.Request.Context(), actor(c), req.Name)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"did": did})
}

func (h *handler) GetCollection(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	collection, err := h.engine.GetCollection(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *handler) UpdateCollection(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	var req struct {
		Name      *string `json:"name"`
		Published *bool   `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid collection update", err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.Name != nil {
		if err := h.engine.RenameCollection(ctx, actor(c), did, *req.Name); err != nil {
			respondDomainError(c, err)
			return
		}
	}
	if req.Published != nil {
		if err := h.engine.PublishCollection(ctx, actor(c), did, *req.Published); err != nil {
			respondDomainError(c, err)
			return
		}
	}

	collection, err := h.engine.GetCollection(ctx, did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *handler) DeleteCollection(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	if err := h.engine.RemoveCollection(c.Request.Context(), actor(c), did); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) SortCollection(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	var req struct {
		Order []domain.DID `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Asset order is required", err.Error())
		return
	}

	if err := h.engine.SortAssets(c.Request.Context(), actor(c), did, req.Order); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) Upload(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	data, err := readBody(c)
	if err != nil {
		respondBadRequest(c, "Cannot read image", err.Error())
		return
	}

	matrixDID, err := h.engine.Upload(c.Request.Context(), actor(c), did, c.Query("title"), data)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"did": matrixDID})
}

func (h *handler) GetAsset(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	asset, err := h.engine.GetAsset(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, asset)
}

func (h *handler) UpdateAsset(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	var req struct {
		Title      *string     `json:"title"`
		Collection *domain.DID `json:"collection"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid asset update", err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.Title != nil {
		if err := h.engine.EditMatrix(ctx, actor(c), did, *req.Title); err != nil {
			respondDomainError(c, err)
			return
		}
	}
	if req.Collection != nil {
		if err := h.engine.MoveAsset(ctx, actor(c), did, *req.Collection); err != nil {
			respondDomainError(c, err)
			return
		}
	}

	matrix, err := h.engine.GetMatrix(ctx, did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

func (h *handler) Mint(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	var req struct {
		Editions int            `json:"editions" binding:"required"`
		Royalty  int            `json:"royalty"`
		License  domain.License `json:"license" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Editions and license are required", err.Error())
		return
	}

	if err := h.engine.Mint(c.Request.Context(), actor(c), did, req.Editions, req.Royalty, req.License); err != nil {
		respondDomainError(c, err)
		return
	}
	matrix, err := h.engine.GetMatrix(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, matrix)
}

func (h *handler) Unmint(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	if err := h.engine.Unmint(c.Request.Context(), actor(c), did); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) SetPrice(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	var req struct {
		Price *int64 `json:"price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Price is required", err.Error())
		return
	}

	if err := h.engine.SetPrice(c.Request.Context(), actor(c), did, *req.Price); err != nil {
		respondDomainError(c, err)
		return
	}
	token, err := h.engine.GetToken(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *handler) Buy(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	if err := h.engine.Buy(c.Request.Context(), actor(c), did); err != nil {
		respondDomainError(c, err)
		return
	}
	token, err := h.engine.GetToken(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *handler) ResolveDID(c *gin.Context) {
	did, ok := pathDID(c)
	if !ok {
		return
	}
	raw, err := h.km.ResolveDID(c.Request.Context(), did)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

func (h *handler) GetBlob(c *gin.Context) {
	cid := c.Param("cid")
	if cid == "" {
		respondBadRequest(c, "CID is required")
		return
	}

	data, mediaType, err := h.engine.FetchBlob(c.Request.Context(), cid)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.Data(http.StatusOK, mediaType, data)
}

func readBody(c *gin.Context) ([]byte, error) {
	defer func() { _ = c.Request.Body.Close() }()
	return io.ReadAll(io.LimitReader(c.Request.Body, market.MaxUploadBytes+1))
}

func setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", false, true)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", false, true)
}
