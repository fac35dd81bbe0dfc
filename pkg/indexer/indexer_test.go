package indexer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zzpkit/zzpkit/pkg/indexer"
	"github.com/zzpkit/zzpkit/pkg/log"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence/file"
	"github.com/zzpkit/zzpkit/pkg/testutil"
	"github.com/zzpkit/zzpkit/pkg/vectorstore"
)

func newTestIndexer(t *testing.T) (*indexer.Indexer, *file.Persistence) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	store := vectorstore.NewEmbeddingStore(p.Embeddings(), testutil.NewFakeEmbedder(3), log.WithModule("test"))

	return indexer.NewIndexer(p, store, log.WithModule("test")), p
}

func TestIndexInvoiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ix, p := newTestIndexer(t)

	client := testutil.CreateTestClient("user-1")
	require.NoError(t, p.Clients().Save(ctx, client))

	invoice := testutil.CreateTestInvoice("user-1", client.ID)
	require.NoError(t, p.Invoices().Save(ctx, invoice))

	ix.IndexInvoice(ctx, invoice)
	ix.IndexInvoice(ctx, invoice)

	embeddings, err := p.Embeddings().ListByUser(ctx, "user-1", nil)
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, models.EntityInvoice, embeddings[0].EntityType)
	assert.Equal(t, invoice.ID, embeddings[0].EntityID)
	assert.Contains(t, embeddings[0].Content, invoice.Number)
	assert.Contains(t, embeddings[0].Content, "EUR 919.60")
}

func TestIndexClientIncludesRecentActivity(t *testing.T) {
	ctx := context.Background()
	ix, p := newTestIndexer(t)

	client := testutil.CreateTestClient("user-1")
	require.NoError(t, p.Clients().Save(ctx, client))

	invoice := testutil.CreateTestInvoice("user-1", client.ID)
	require.NoError(t, p.Invoices().Save(ctx, invoice))

	ix.IndexClient(ctx, client)

	embeddings, err := p.Embeddings().ListByUser(ctx, "user-1", []string{models.EntityClient})
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Contains(t, embeddings[0].Content, client.Name)
	assert.Contains(t, embeddings[0].Content, "Recent invoices:")
	assert.Contains(t, embeddings[0].Content, invoice.Number)
}

// A broken embedding provider must never surface to the caller;
// indexing degrades to a log line.
func TestIndexFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()

	p := file.NewPersistence(t.TempDir())
	embedder := testutil.NewFakeEmbedder(3)
	embedder.Fail = errors.New("embeddings API unavailable")
	store := vectorstore.NewEmbeddingStore(p.Embeddings(), embedder, log.WithModule("test"))
	ix := indexer.NewIndexer(p, store, log.WithModule("test"))

	invoice := testutil.CreateTestInvoice("user-1", "client-1")
	ix.IndexInvoice(ctx, invoice)

	embeddings, err := p.Embeddings().ListByUser(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, embeddings)
}

func TestDeleteEntityRemovesEmbeddings(t *testing.T) {
	ctx := context.Background()
	ix, p := newTestIndexer(t)

	invoice := testutil.CreateTestInvoice("user-1", "client-1")
	ix.IndexInvoice(ctx, invoice)

	ix.DeleteEntity(ctx, "user-1", models.EntityInvoice, invoice.ID)

	embeddings, err := p.Embeddings().ListByUser(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, embeddings)
}

func TestIndexAllUserDataCoversEveryEntityType(t *testing.T) {
	ctx := context.Background()
	ix, p := newTestIndexer(t)

	client := testutil.CreateTestClient("user-1")
	require.NoError(t, p.Clients().Save(ctx, client))

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Invoices().Save(ctx, testutil.CreateTestInvoice("user-1", client.ID)))
	}

	project := &models.Project{
		ID:       "project-1",
		UserID:   "user-1",
		ClientID: client.ID,
		Name:     "Website rebuild",
		Status:   "active",
	}
	require.NoError(t, p.Projects().Save(ctx, project))

	// Another user's data must stay out of the index.
	require.NoError(t, p.Clients().Save(ctx, testutil.CreateTestClient("user-2")))

	require.NoError(t, ix.IndexAllUserData(ctx, "user-1"))

	embeddings, err := p.Embeddings().ListByUser(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Len(t, embeddings, 5)

	other, err := p.Embeddings().ListByUser(ctx, "user-2", nil)
	require.NoError(t, err)
	assert.Empty(t, other)
}
