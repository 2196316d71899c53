package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
)

func newService(t *testing.T, setup func(m *client.MockRepository)) *client.Service {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := client.NewMockRepository(ctrl)

	if setup != nil {
		setup(repo)
	}

	return client.NewService(repo)
}

func TestService_Seed(t *testing.T) {
	svc := newService(t, func(m *client.MockRepository) {
		m.EXPECT().LoadClients(gomock.Any()).Return(nil, client.ErrNotPersisted)
		m.EXPECT().SaveClients(gomock.Any(), gomock.Len(1)).Return(nil)
	})

	require.NoError(t, svc.Load(context.Background()))

	clients := svc.List()
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Corporation", clients[0].FullName)
	assert.Equal(t, "123 Main Street", clients[0].Address)
	assert.Equal(t, "12345", clients[0].Zip)
	assert.NotEmpty(t, clients[0].ID)
}

func TestService_Load(t *testing.T) {
	type testCase struct {
		name      string
		setupMock func(m *client.MockRepository)
		wantLen   int
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Persisted",
			setupMock: func(m *client.MockRepository) {
				m.EXPECT().LoadClients(gomock.Any()).Return([]client.Client{
					{ID: "a", FullName: "A"},
					{ID: "b", FullName: "B"},
				}, nil)
			},
			wantLen: 2,
		},
		{
			name: "PersistedEmpty",
			setupMock: func(m *client.MockRepository) {
				m.EXPECT().LoadClients(gomock.Any()).Return([]client.Client{}, nil)
			},
			wantLen: 0,
		},
		{
			name: "SeedSaveError",
			setupMock: func(m *client.MockRepository) {
				m.EXPECT().LoadClients(gomock.Any()).Return(nil, client.ErrNotPersisted)
				m.EXPECT().SaveClients(gomock.Any(), gomock.Any()).Return(errors.New("read-only"))
			},
			wantLen: 1,
			wantErr: true,
		},
		{
			name: "RepoError",
			setupMock: func(m *client.MockRepository) {
				m.EXPECT().LoadClients(gomock.Any()).Return(nil, errors.New("disk error"))
			},
			wantLen: 1,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.setupMock)

			err := svc.Load(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Len(t, svc.List(), tt.wantLen)
		})
	}
}

func TestService_AddUpdateRemove(t *testing.T) {
	ctx := context.Background()

	var saved [][]client.Client

	svc := newService(t, func(m *client.MockRepository) {
		m.EXPECT().LoadClients(gomock.Any()).Return([]client.Client{}, nil)
		m.EXPECT().SaveClients(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, clients []client.Client) error {
				saved = append(saved, clients)
				return nil
			}).
			Times(3)
	})
	require.NoError(t, svc.Load(ctx))

	added, err := svc.Add(ctx, client.CreateParams{FullName: " Globex ", Address: "1 Loop", Zip: "999"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "Globex", added.FullName)

	updated, err := svc.Update(ctx, added.ID, client.Patch{Zip: new("1000")})
	require.NoError(t, err)
	assert.Equal(t, "1000", updated.Zip)
	assert.Equal(t, "1 Loop", updated.Address)

	got, err := svc.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, svc.Remove(ctx, added.ID))
	assert.Empty(t, svc.List())

	require.Len(t, saved, 3)
	assert.Len(t, saved[0], 1)
	assert.Empty(t, saved[2])
}

func TestService_UnknownID(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil)
	before := svc.List()

	_, err := svc.Update(ctx, "missing", client.Patch{FullName: new("X")})
	assert.ErrorIs(t, err, client.ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, "missing"), client.ErrNotFound)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, client.ErrNotFound)

	assert.Equal(t, before, svc.List())
}

func TestService_SaveFailureDoesNotCommit(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, func(m *client.MockRepository) {
		m.EXPECT().SaveClients(gomock.Any(), gomock.Any()).Return(errors.New("disk full")).Times(2)
	})
	before := svc.List()

	_, err := svc.Add(ctx, client.CreateParams{FullName: "Initech"})
	assert.Error(t, err)

	err = svc.Remove(ctx, before[0].ID)
	assert.Error(t, err)

	assert.Equal(t, before, svc.List())
}

func TestService_Suggest(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, func(m *client.MockRepository) {
		m.EXPECT().LoadClients(gomock.Any()).Return([]client.Client{
			{ID: "1", FullName: "Northwind Traders"},
			{ID: "2", FullName: "Acme Corporation"},
			{ID: "3", FullName: "Wind River"},
			{ID: "4", FullName: "Windmill Labs"},
		}, nil)
	})
	require.NoError(t, svc.Load(ctx))

	got := svc.Suggest("wind", 10)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"3", "4", "1"}, []string{got[0].ID, got[1].ID, got[2].ID})

	assert.Len(t, svc.Suggest("", 2), 2)
	assert.Empty(t, svc.Suggest("zzz", 5))
	assert.Nil(t, svc.Suggest("wind", 0))
}
