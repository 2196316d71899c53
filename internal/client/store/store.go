package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/storage"
)

const Key = "client-storage"

// schemaVersion 1 stores the bare client array. Version 0 is the browser
// editor's {"clients": [...]} state.
const schemaVersion = 1

var _ client.Repository = (*Store)(nil)

type Store struct {
	backend storage.Backend
	codec   *storage.Codec
	now     func() time.Time
}

func New(backend storage.Backend) *Store {
	return &Store{
		backend: backend,
		codec: storage.NewCodec(schemaVersion, map[int]storage.Migration{
			0: storage.UnwrapKey("clients"),
		}),
		now: time.Now,
	}
}

func (s *Store) LoadClients(ctx context.Context) ([]client.Client, error) {
	raw, err := s.backend.Get(ctx, Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, client.ErrNotPersisted
	}

	if err != nil {
		return nil, fmt.Errorf("reading clients: %w", err)
	}

	var clients []client.Client
	if err := s.codec.Decode(raw, &clients); err != nil {
		return nil, fmt.Errorf("decoding clients: %w", err)
	}

	if clients == nil {
		clients = []client.Client{}
	}

	return clients, nil
}

func (s *Store) SaveClients(ctx context.Context, clients []client.Client) error {
	if clients == nil {
		clients = []client.Client{}
	}

	raw, err := s.codec.Encode(clients, s.now())
	if err != nil {
		return fmt.Errorf("encoding clients: %w", err)
	}

	if err := s.backend.Put(ctx, Key, raw); err != nil {
		return fmt.Errorf("writing clients: %w", err)
	}

	return nil
}
