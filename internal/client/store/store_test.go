package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
	"github.com/MrJamesThe3rd/invoicer/internal/client/store"
	"github.com/MrJamesThe3rd/invoicer/internal/storage"
	"github.com/MrJamesThe3rd/invoicer/internal/storage/memory"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New())

	_, err := s.LoadClients(ctx)
	assert.ErrorIs(t, err, client.ErrNotPersisted)

	want := []client.Client{
		{ID: "1", FullName: "Acme Corporation", Address: "123 Main Street", Zip: "12345"},
		{ID: "2", FullName: "Globex", Address: "1 Loop", Zip: "999"},
	}
	require.NoError(t, s.SaveClients(ctx, want))

	got, err := s.LoadClients(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_EmptyDirectoryStaysEmpty(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New())

	require.NoError(t, s.SaveClients(ctx, nil))

	got, err := s.LoadClients(ctx)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_LoadBrowserState(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	legacy := `{"state":{"clients":[{"id":"c1","fullName":"Acme Corporation","address":"123 Main Street","zip":"12345"}]},"version":0}`
	require.NoError(t, backend.Put(ctx, store.Key, []byte(legacy)))

	got, err := store.New(backend).LoadClients(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
}

func TestStore_BackendErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	backend := storage.NewMockBackend(ctrl)

	backend.EXPECT().Get(gomock.Any(), store.Key).Return(nil, errors.New("io error"))
	backend.EXPECT().Put(gomock.Any(), store.Key, gomock.Any()).Return(errors.New("io error"))

	s := store.New(backend)

	_, err := s.LoadClients(ctx)
	assert.ErrorContains(t, err, "reading clients")
	assert.NotErrorIs(t, err, client.ErrNotPersisted)

	assert.ErrorContains(t, s.SaveClients(ctx, nil), "writing clients")
}

func TestService_SeedSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()

	first := client.NewService(store.New(backend))
	require.NoError(t, first.Load(ctx))
	seed := first.List()[0]

	restarted := client.NewService(store.New(backend))
	require.NoError(t, restarted.Load(ctx))

	got, ok := restarted.Lookup(seed.ID)
	require.True(t, ok, "seed client %q lost on restart", seed.ID)
	assert.Equal(t, seed, got)
	assert.Len(t, restarted.List(), 1)
}
