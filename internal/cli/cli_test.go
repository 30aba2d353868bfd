package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tickets/internal/config"
	"github.com/jacentio/tickets/memstore"
	"github.com/jacentio/tickets/ticket"
)

func countPlan(plan []SeedTicket) int {
	n := 0
	for _, st := range plan {
		n += 1 + countPlan(st.Children)
	}
	return n
}

func TestSeed_SamplePlan(t *testing.T) {
	store := memstore.New()
	svc := ticket.NewService(store, ticket.DefaultConfig(), nil)

	n, err := Seed(context.Background(), svc, SamplePlan)
	require.NoError(t, err)
	assert.Equal(t, countPlan(SamplePlan), n)
	assert.Equal(t, n, store.Len())

	roots, err := svc.FindAll(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, roots, 3)

	first := roots[0]
	assert.Equal(t, "Project A - core platform", first.Title)
	require.Len(t, first.Children, 3)
	assert.Len(t, first.Children[0].Children, 2, "three levels are built")
	assert.Equal(t, 7, ticket.CountDescendants(first))
}

type failingSeeder struct {
	Seeder
	failAfter int
	calls     int
}

func (f *failingSeeder) CreateTicket(ctx context.Context, title, description string) (*ticket.Ticket, error) {
	f.calls++
	if f.calls > f.failAfter {
		return nil, errors.New("storage down")
	}
	return f.Seeder.CreateTicket(ctx, title, description)
}

func TestSeed_StopsOnError(t *testing.T) {
	svc := ticket.NewService(memstore.New(), ticket.DefaultConfig(), nil)
	s := &failingSeeder{Seeder: svc, failAfter: 2}

	n, err := Seed(context.Background(), s, SamplePlan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage down")
	assert.Equal(t, 2, n)
}

func TestNewApp_BackendOverride(t *testing.T) {
	var out bytes.Buffer

	a, err := NewApp("", config.BackendDynamoDB, &out, &out)
	require.NoError(t, err)
	assert.Equal(t, config.BackendDynamoDB, a.Config.Backend)

	_, err = NewApp("", "sqlite", &out, &out)
	assert.Error(t, err)
}

func TestOpenRepository_Memory(t *testing.T) {
	cfg := config.Default()
	repo, closeRepo, err := openRepository(context.Background(), cfg, cfg.Logger(&bytes.Buffer{}))
	require.NoError(t, err)
	defer closeRepo(context.Background())

	_, ok := repo.(*memstore.Store)
	assert.True(t, ok)
}

func TestOpenRepository_Unknown(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "cassandra"

	_, _, err := openRepository(context.Background(), cfg, cfg.Logger(&bytes.Buffer{}))
	assert.Error(t, err)
}
