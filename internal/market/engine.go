// Package market implements the marketplace core: the tokenization engine
// (upload, mint, unmint, list, buy), the append-only transaction recorder and
// the access-control checks guarding every mutating operation.
//
// The backing stores only support whole-document load and replace, so every
// operation follows the same shape: lock every document it will touch (sorted
// key order, see store.KeyMutex), validate everything up front, perform the
// SDK asset writes, and batch the ledger writes last so a late failure can
// never leave a half-applied transaction.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/keychainmdip/dex-market/internal/adapter"
	"github.com/keychainmdip/dex-market/internal/auth"
	"github.com/keychainmdip/dex-market/internal/domain"
	"github.com/keychainmdip/dex-market/internal/keymaster"
	"github.com/keychainmdip/dex-market/internal/notify"
	"github.com/keychainmdip/dex-market/internal/pricing"
	"github.com/keychainmdip/dex-market/internal/store"
)

// DefaultStartingCredits seeds the settings document when none exists
const DefaultStartingCredits = 1000

// defaultCollectionName names the collection created on first login
const defaultCollectionName = "My Collection"

// Config assembles an Engine from its collaborators
type Config struct {
	Store     store.Store
	Keymaster keymaster.Client
	Notifier  *notify.Dispatcher
	Policy    auth.Policy
	Rates     pricing.Policy
	Clock     adapter.Clock

	// Custodian is the marketplace's own identity. Tokens it holds do not
	// count as sold for the purpose of unminting.
	Custodian domain.DID

	// StartingCredits seeds the settings document when none exists yet
	StartingCredits int64
}

// Engine executes marketplace operations against the ledger store and the
// identity/asset SDK
type Engine struct {
	store     store.Store
	km        keymaster.Client
	notifier  *notify.Dispatcher
	policy    auth.Policy
	rates     pricing.Policy
	clock     adapter.Clock
	locks     *store.KeyMutex
	custodian domain.DID
	starting  int64
}

// NewEngine creates a marketplace engine
func NewEngine(cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = adapter.NewClock()
	}
	rates := cfg.Rates
	if rates.StorageRate == 0 && rates.EditionRate == 0 {
		rates = pricing.Default()
	}
	starting := cfg.StartingCredits
	if starting <= 0 {
		starting = DefaultStartingCredits
	}
	return &Engine{
		store:     cfg.Store,
		km:        cfg.Keymaster,
		notifier:  cfg.Notifier,
		policy:    cfg.Policy,
		rates:     rates,
		clock:     clock,
		locks:     store.NewKeyMutex(),
		custodian: cfg.Custodian,
		starting:  starting,
	}
}

// Rates returns the configured pricing policy
func (e *Engine) Rates() pricing.Policy {
	return e.rates
}

// Policy returns the access-control policy
func (e *Engine) Policy() auth.Policy {
	return e.policy
}

// resolveCollection loads a collection document or fails with a typed error
func (e *Engine) resolveCollection(ctx context.Context, did domain.DID) (*domain.CollectionDoc, error) {
	doc, err := e.km.ResolveAsset(ctx, did)
	if err != nil {
		return nil, err
	}
	if doc.Kind != domain.KindCollection || doc.Collection == nil {
		return nil, fmt.Errorf("%s is not a collection: %w", did, domain.ErrValidation)
	}
	return doc.Collection, nil
}

// resolveMatrix loads a matrix document or fails with a typed error
func (e *Engine) resolveMatrix(ctx context.Context, did domain.DID) (*domain.MatrixDoc, error) {
	doc, err := e.km.ResolveAsset(ctx, did)
	if err != nil {
		return nil, err
	}
	if doc.Kind != domain.KindMatrix || doc.Matrix == nil {
		return nil, fmt.Errorf("%s is not a matrix asset: %w", did, domain.ErrValidation)
	}
	return doc.Matrix, nil
}

// resolveToken loads a token document or fails with a typed error
func (e *Engine) resolveToken(ctx context.Context, did domain.DID) (*domain.TokenDoc, error) {
	doc, err := e.km.ResolveAsset(ctx, did)
	if err != nil {
		return nil, err
	}
	if doc.Kind != domain.KindToken || doc.Token == nil {
		return nil, fmt.Errorf("%s is not a token: %w", did, domain.ErrValidation)
	}
	return doc.Token, nil
}

func collectionAsset(c *domain.CollectionDoc) *domain.AssetDoc {
	return &domain.AssetDoc{Kind: domain.KindCollection, Collection: c}
}

func matrixAsset(m *domain.MatrixDoc) *domain.AssetDoc {
	return &domain.AssetDoc{Kind: domain.KindMatrix, Matrix: m}
}

func tokenAsset(t *domain.TokenDoc) *domain.AssetDoc {
	return &domain.AssetDoc{Kind: domain.KindToken, Token: t}
}

// recordTx applies a signed credit delta to a user and appends the matching
// ledger entry. Balance is the running total after the delta, keeping the
// conservation invariant checkable by replaying the history.
func recordTx(user *domain.User, now time.Time, typ domain.TxType, amount int64, asset domain.DID) {
	user.Credits += amount
	user.History = append(user.History, domain.TransactionRecord{
		Time:    now,
		Type:    typ,
		Amount:  amount,
		Balance: user.Credits,
		Asset:   asset,
	})
}

// notify sends a best-effort message; a nil dispatcher drops it
func (e *Engine) notify(to, cc []domain.DID, subject, body string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(to, cc, subject, body)
}

func lockKeys(dids ...domain.DID) []string {
	keys := make([]string, 0, len(dids))
	for _, d := range dids {
		keys = append(keys, d.String())
	}
	return keys
}
