package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/go_cart/gomarketplace/internal/domain"
	"github.com/fjod/go_cart/gomarketplace/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// StorageKey is the key the cart blob is persisted under.
const StorageKey = "@GoMarketplace:products"

const (
	OpAdd       = "add"
	OpIncrement = "increment"
	OpDecrement = "decrement"
)

// Listener receives a private copy of the cart after every change.
// It runs while the store is still serializing operations, so it may call
// Products but must not call a mutation.
type Listener func(items []domain.CartItem)

// Recorder observes mutations, typically for metrics.
type Recorder interface {
	ObserveMutation(op string, err error)
	ObserveCart(lines, units int)
}

type Option func(*CartStore)

func WithRecorder(r Recorder) Option {
	return func(s *CartStore) {
		s.rec = r
	}
}

type subscription struct {
	id int
	fn Listener
}

type CartStore struct {
	kv  storage.KeyValueStore
	log logrus.FieldLogger
	rec Recorder
	sfg singleflight.Group // collapses concurrent Load calls

	// opMu serializes Load and mutations, including their storage write
	opMu sync.Mutex

	mu     sync.RWMutex
	items  []domain.CartItem
	loaded bool

	subMu     sync.Mutex
	subs      []subscription
	nextSubID int
}

func NewCartStore(kv storage.KeyValueStore, log logrus.FieldLogger, opts ...Option) *CartStore {
	s := &CartStore{
		kv:    kv,
		log:   log,
		rec:   nopRecorder{},
		items: []domain.CartItem{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted cart once. A missing or malformed blob leaves the
// cart empty; a storage failure is returned as ErrStorageRead but the store is
// still usable with an empty cart. Calls after the first are no-ops.
func (s *CartStore) Load(ctx context.Context) error {
	_, err, _ := s.sfg.Do(StorageKey, func() (interface{}, error) {
		return nil, s.load(ctx)
	})
	return err
}

func (s *CartStore) load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.Loaded() {
		return nil
	}

	raw, err := s.kv.Get(ctx, StorageKey)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		s.setLoaded([]domain.CartItem{})
		s.log.WithError(err).Error("cart load failed, starting empty")
		return fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	items, repaired, decodeErr := decodeItems(raw)
	switch {
	case decodeErr != nil:
		s.log.WithError(decodeErr).Warn("discarding persisted cart")
		items = []domain.CartItem{}
	case repaired:
		s.log.WithField("lines", len(items)).Warn("persisted cart repaired on load")
	}

	s.setLoaded(items)
	s.rec.ObserveCart(countLines(items))
	s.notify(items)
	return nil
}

// AddToCart appends product with quantity 1, or bumps the quantity of the
// line that already carries its id.
func (s *CartStore) AddToCart(ctx context.Context, product domain.Product) ([]domain.CartItem, error) {
	if err := validateProduct(product); err != nil {
		s.rec.ObserveMutation(OpAdd, err)
		return nil, err
	}

	return s.mutate(ctx, OpAdd, func(items []domain.CartItem) ([]domain.CartItem, error) {
		if idx := domain.IndexOf(items, product.ID); idx >= 0 {
			items[idx].Quantity++
			return items, nil
		}
		return append(items, domain.NewCartItem(product)), nil
	})
}

func (s *CartStore) Increment(ctx context.Context, id string) ([]domain.CartItem, error) {
	return s.mutate(ctx, OpIncrement, func(items []domain.CartItem) ([]domain.CartItem, error) {
		idx := domain.IndexOf(items, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		items[idx].Quantity++
		return items, nil
	})
}

// Decrement lowers the quantity by one and drops the line when it reaches 0.
func (s *CartStore) Decrement(ctx context.Context, id string) ([]domain.CartItem, error) {
	return s.mutate(ctx, OpDecrement, func(items []domain.CartItem) ([]domain.CartItem, error) {
		idx := domain.IndexOf(items, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if items[idx].Quantity > 1 {
			items[idx].Quantity--
			return items, nil
		}

		kept := make([]domain.CartItem, 0, len(items)-1)
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		return kept, nil
	})
}

// mutate applies fn to a copy of the cart, swaps the result in, writes exactly
// that result to storage and notifies listeners. A failed write keeps the new
// in-memory state and is reported as ErrStorageWrite.
func (s *CartStore) mutate(
	ctx context.Context,
	op string,
	fn func(items []domain.CartItem) ([]domain.CartItem, error)) ([]domain.CartItem, error) {

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.Loaded() {
		s.rec.ObserveMutation(op, ErrNotLoaded)
		return nil, ErrNotLoaded
	}

	next, err := fn(s.Products())
	if err != nil {
		s.rec.ObserveMutation(op, err)
		return nil, err
	}

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()

	writeErr := s.persist(ctx, next)
	s.notify(next)
	s.rec.ObserveMutation(op, writeErr)
	s.rec.ObserveCart(countLines(next))

	if writeErr != nil {
		s.log.WithError(writeErr).WithField("op", op).Error("cart changed but was not persisted")
		return nil, writeErr
	}
	return domain.Clone(next), nil
}

func (s *CartStore) persist(ctx context.Context, items []domain.CartItem) error {
	blob, err := encodeItems(items)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	if err := s.kv.Set(ctx, StorageKey, blob); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

// Products returns a copy of the current cart in insertion order.
func (s *CartStore) Products() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Clone(s.items)
}

// Count is the sum of all quantities.
func (s *CartStore) Count() int {
	units, _ := domain.Totals(s.Products())
	return units
}

// Total is the sum of price times quantity. Display only.
func (s *CartStore) Total() float64 {
	_, total := domain.Totals(s.Products())
	return total
}

func (s *CartStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Subscribe registers l and returns a func that removes it.
func (s *CartStore) Subscribe(l Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs = append(s.subs, subscription{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *CartStore) notify(items []domain.CartItem) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(domain.Clone(items))
	}
}

func (s *CartStore) setLoaded(items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.loaded = true
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProduct)
	}
	if !validPrice(p.Price) {
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	}
	return nil
}

func countLines(items []domain.CartItem) (lines, units int) {
	units, _ = domain.Totals(items)
	return len(items), units
}

type nopRecorder struct{}

func (nopRecorder) ObserveMutation(string, error) {}
func (nopRecorder) ObserveCart(int, int)          {}
