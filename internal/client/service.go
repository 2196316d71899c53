package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/MrJamesThe3rd/invoicer/internal/ident"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=client
type Repository interface {
	// LoadClients returns ErrNotPersisted when nothing was ever saved.
	LoadClients(ctx context.Context) ([]Client, error)
	SaveClients(ctx context.Context, clients []Client) error
}

// Service owns the address book. Every mutation persists the whole list and
// is only committed once the save succeeds.
type Service struct {
	repo  Repository
	newID func() string

	mu      sync.RWMutex
	clients []Client
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:    repo,
		newID:   ident.NewID,
		clients: Seed(),
	}
}

// Load replaces the in-memory directory with the persisted one. When nothing
// was persisted yet the seed directory is saved so its ids survive restarts.
func (s *Service) Load(ctx context.Context) error {
	clients, err := s.repo.LoadClients(ctx)
	if errors.Is(err, ErrNotPersisted) {
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.commit(ctx, s.clients)
	}

	if err != nil {
		return fmt.Errorf("loading clients: %w", err)
	}

	s.mu.Lock()
	s.clients = clients
	s.mu.Unlock()

	return nil
}

func (s *Service) List() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.clients)
}

func (s *Service) Get(id string) (Client, error) {
	c, ok := s.Lookup(id)
	if !ok {
		return Client{}, ErrNotFound
	}

	return c, nil
}

// Lookup reports whether id resolves to a client.
func (s *Service) Lookup(id string) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return Client{}, false
	}

	return s.clients[i], true
}

func (s *Service) Add(ctx context.Context, params CreateParams) (Client, error) {
	added, err := s.Import(ctx, []CreateParams{params})
	if err != nil {
		return Client{}, err
	}

	return added[0], nil
}

// Import appends every entry with a single save.
func (s *Service) Import(ctx context.Context, params []CreateParams) ([]Client, error) {
	if len(params) == 0 {
		return nil, nil
	}

	added := make([]Client, len(params))
	for i, p := range params {
		added[i] = Client{
			ID:       s.newID(),
			FullName: strings.TrimSpace(p.FullName),
			Address:  strings.TrimSpace(p.Address),
			Zip:      strings.TrimSpace(p.Zip),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(slices.Clone(s.clients), added...)
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	return added, nil
}

// Update merges p into the client. An unknown id changes nothing.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Client{}, ErrNotFound
	}

	next := slices.Clone(s.clients)
	next[i].apply(p)

	if err := s.commit(ctx, next); err != nil {
		return Client{}, err
	}

	return next[i], nil
}

// Remove deletes the client. Invoices linked to it keep their stored bill-to
// values and simply stop resolving.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}

	return s.commit(ctx, slices.Delete(slices.Clone(s.clients), i, i+1))
}

// commit must be called with mu held.
func (s *Service) commit(ctx context.Context, next []Client) error {
	if err := s.repo.SaveClients(ctx, next); err != nil {
		return fmt.Errorf("saving clients: %w", err)
	}

	s.clients = next

	return nil
}

func (s *Service) index(id string) int {
	return slices.IndexFunc(s.clients, func(c Client) bool { return c.ID == id })
}
