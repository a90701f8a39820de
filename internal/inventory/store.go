// Package inventory owns the product collection and its derived views.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foxxcyber/pex/internal/expiry"
	"github.com/foxxcyber/pex/internal/models"
)

// StorageKey is the key the whole collection is saved under
const StorageKey = "pex_inventory"

// KeyValueStore is the persistence collaborator.
// Get returns (nil, nil) when the key does not exist.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the single owner of the product collection. Every mutation
// recomputes derived fields and writes the full collection once; the
// in-memory state only changes after that write succeeds.
type Store struct {
	mu       sync.RWMutex
	kv       KeyValueStore
	products []models.Product

	now        func() time.Time
	newID      func() string
	rejectPast bool
	log        zerolog.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now as the source of "today"
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithRejectPastExpiry makes Add refuse expiry dates before today
func WithRejectPastExpiry(reject bool) Option {
	return func(s *Store) { s.rejectPast = reject }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates an empty store backed by kv. Call Load to restore state.
func NewStore(kv KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		products: []models.Product{},
		now:      time.Now,
		newID:    uuid.NewString,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's clock reading
func (s *Store) Now() time.Time {
	return s.now()
}

// Today returns the store's current calendar date
func (s *Store) Today() time.Time {
	return expiry.Today(s.now())
}

// Products returns a snapshot of the collection in insertion order
func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProducts(s.products)
}

// Len returns the collection size
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Get returns a copy of the product with the given id
func (s *Store) Get(id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrNotFound
	}
	return cloneProduct(s.products[i]), nil
}

// Query runs Filter over the current collection
func (s *Store) Query(spec models.FilterSpec) []models.Product {
	return Filter(s.Products(), spec)
}

// Stats runs ComputeStats over the full current collection
func (s *Store) Stats() models.InventoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStats(s.products)
}

// Validate checks draft exactly as Add would, without storing anything.
// The returned product has derived fields but no id.
func (s *Store) Validate(draft models.ProductDraft) (models.Product, error) {
	p, err := applyDraft(models.Product{}, draft, true)
	if err != nil {
		return models.Product{}, err
	}
	if err := derive(&p, s.Today()); err != nil {
		return models.Product{}, err
	}
	if s.rejectPast && p.DaysToExpiry < 0 {
		return models.Product{}, invalid("expiryDate", "must not be before today")
	}
	return p, nil
}

// Add validates draft, assigns an id and appends the new product
func (s *Store) Add(ctx context.Context, draft models.ProductDraft) (models.Product, error) {
	p, err := s.Validate(draft)
	if err != nil {
		return models.Product{}, err
	}
	p.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Product, 0, len(s.products)+1)
	next = append(next, s.products...)
	next = append(next, p)

	if err := s.persist(ctx, next); err != nil {
		return models.Product{}, err
	}
	s.products = next

	s.log.Info().Str("id", p.ID).Str("name", p.Name).Str("status", string(p.Status)).Msg("product added")
	return cloneProduct(p), nil
}

// AddMany validates every draft and appends the valid ones with a single
// persistence write. errs is aligned with drafts; a nil entry means the draft
// was added. When the write fails nothing is added.
func (s *Store) AddMany(ctx context.Context, drafts []models.ProductDraft) (added []models.Product, errs []error, err error) {
	errs = make([]error, len(drafts))
	added = make([]models.Product, 0, len(drafts))
	for i, d := range drafts {
		p, err := s.Validate(d)
		if err != nil {
			errs[i] = err
			continue
		}
		p.ID = s.newID()
		added = append(added, p)
	}
	if len(added) == 0 {
		return added, errs, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Product, 0, len(s.products)+len(added))
	next = append(next, s.products...)
	next = append(next, added...)

	if err := s.persist(ctx, next); err != nil {
		return nil, errs, err
	}
	s.products = next

	s.log.Info().Int("count", len(added)).Int("rejected", len(drafts)-len(added)).Msg("products added")
	return cloneProducts(added), errs, nil
}

// Update applies draft to the product with the given id.
// Nil draft fields keep their value; derived fields are always recomputed.
func (s *Store) Update(ctx context.Context, id string, draft models.ProductDraft) (models.Product, error) {
	today := s.Today()

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrNotFound
	}

	p, err := applyDraft(cloneProduct(s.products[i]), draft, false)
	if err != nil {
		return models.Product{}, err
	}
	if err := derive(&p, today); err != nil {
		return models.Product{}, err
	}

	next := cloneProducts(s.products)
	next[i] = p

	if err := s.persist(ctx, next); err != nil {
		return models.Product{}, err
	}
	s.products = next

	s.log.Info().Str("id", p.ID).Str("status", string(p.Status)).Msg("product updated")
	return cloneProduct(p), nil
}

// Remove deletes the product with the given id. Removing an unknown id is
// not an error; it reports false and writes nothing.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	n, err := s.removeMany(ctx, []string{id}, "product removed")
	return n > 0, err
}

// Sell takes a product out of expiry control. It is a removal like Remove.
func (s *Store) Sell(ctx context.Context, id string) (bool, error) {
	n, err := s.removeMany(ctx, []string{id}, "product sold")
	return n > 0, err
}

// RemoveMany deletes every listed id with a single persistence write and
// returns how many products were removed
func (s *Store) RemoveMany(ctx context.Context, ids []string) (int, error) {
	return s.removeMany(ctx, ids, "products removed")
}

func (s *Store) removeMany(ctx context.Context, ids []string, msg string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if _, ok := drop[p.ID]; ok {
			continue
		}
		next = append(next, p)
	}

	removed := len(s.products) - len(next)
	if removed == 0 {
		return 0, nil
	}

	if err := s.persist(ctx, next); err != nil {
		return 0, err
	}
	s.products = next

	s.log.Info().Int("count", removed).Msg(msg)
	return removed, nil
}

// Refresh recomputes derived fields against today and persists the
// collection if any product changed. It returns the number of changes.
func (s *Store) Refresh(ctx context.Context) (int, error) {
	today := s.Today()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneProducts(s.products)
	changed := 0
	for i := range next {
		before := next[i]
		if err := derive(&next[i], today); err != nil {
			return 0, fmt.Errorf("refresh %s: %w", before.ID, err)
		}
		if before.DaysToExpiry != next[i].DaysToExpiry || before.Status != next[i].Status {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	if err := s.persist(ctx, next); err != nil {
		return 0, err
	}
	s.products = next

	s.log.Info().Int("changed", changed).Msg("derived fields refreshed")
	return changed, nil
}

// Load replaces the collection with the persisted one. A missing or
// undecodable value yields an empty collection; only backend errors are
// returned. Derived fields are recomputed against today.
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("failed to load inventory: %w", err)
	}

	products, dropped, err := decodeProducts(raw)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored inventory unreadable, starting empty")
		products = []models.Product{}
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("skipped invalid stored products")
	}

	today := s.Today()
	for i := range products {
		// decodeProducts only keeps records with a valid date
		_ = derive(&products[i], today)
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	s.log.Info().Int("count", len(products)).Msg("inventory loaded")
	return nil
}

// Save writes the current collection
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist(ctx, s.products)
}

func (s *Store) persist(ctx context.Context, products []models.Product) error {
	data, err := encodeProducts(products)
	if err != nil {
		return fmt.Errorf("failed to encode inventory: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

// applyDraft copies the set fields of d onto base and validates the result
func applyDraft(base models.Product, d models.ProductDraft, creating bool) (models.Product, error) {
	p := base

	if d.Name != nil {
		p.Name = strings.TrimSpace(*d.Name)
	}
	if p.Name == "" {
		return models.Product{}, invalid("name", "is required")
	}

	if d.ExpiryDate != nil {
		date, err := expiry.Normalize(*d.ExpiryDate)
		if err != nil {
			return models.Product{}, invalid("expiryDate", "must be a YYYY-MM-DD date")
		}
		p.ExpiryDate = date
	} else if creating {
		return models.Product{}, invalid("expiryDate", "is required")
	}

	if d.Quantity != nil {
		if *d.Quantity < 0 {
			return models.Product{}, invalid("quantity", "cannot be negative")
		}
		p.Quantity = *d.Quantity
	}

	if d.Barcode != nil {
		p.Barcode = strings.TrimSpace(*d.Barcode)
	}
	if d.Batch != nil {
		p.Batch = optionalString(*d.Batch)
	}
	if d.Observations != nil {
		p.Observations = *d.Observations
	}

	return p, nil
}

// derive is the only place DaysToExpiry and Status are assigned
func derive(p *models.Product, today time.Time) error {
	days, status, err := expiry.Classify(p.ExpiryDate, today)
	if err != nil {
		return invalid("expiryDate", "must be a YYYY-MM-DD date")
	}
	p.DaysToExpiry = days
	p.Status = status
	return nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func cloneProduct(p models.Product) models.Product {
	if p.Batch != nil {
		b := *p.Batch
		p.Batch = &b
	}
	return p
}

func cloneProducts(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		out[i] = cloneProduct(p)
	}
	return out
}
