package rag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/pkg/persistence"
)

func setupRetriever(t *testing.T) (*SQLiteRetriever, *Indexer) {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewSQLiteRetriever(store), NewIndexer(store)
}

func TestRetrieveFindsTenantDocuments(t *testing.T) {
	retriever, indexer := setupRetriever(t)
	ctx := context.Background()

	err := indexer.IndexAll(ctx, "tenant-1", []Document{
		{Title: "Horario", Content: "Abrimos de martes a domingo, de 13:00 a 23:30.", Category: "hours"},
		{Title: "Parking", Content: "Disponemos de parking gratuito para clientes en la calle Mayor.", Category: "facilities"},
		{Title: "Menu del dia", Content: "El menu del dia cuesta 15 euros e incluye postre.", Category: "menu"},
	})
	require.NoError(t, err)

	result, err := retriever.Retrieve(ctx, "tenant-1", "¿Tenéis parking para clientes?", 3)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.Context, "parking gratuito")
	assert.Contains(t, result.Sources, "Parking")
}

func TestRetrieveIsTenantScoped(t *testing.T) {
	retriever, indexer := setupRetriever(t)
	ctx := context.Background()

	_, err := indexer.Index(ctx, "tenant-1", Document{
		Title: "Horario", Content: "Abrimos todos los dias a las 12:00.",
	})
	require.NoError(t, err)

	result, err := retriever.Retrieve(ctx, "tenant-2", "horario de apertura", 3)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Context)
	assert.Empty(t, result.Sources)
}

func TestRetrieveEmptyQuery(t *testing.T) {
	retriever, _ := setupRetriever(t)

	result, err := retriever.Retrieve(context.Background(), "tenant-1", "  ", 3)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Context)
}

func TestRetrieveRespectsMaxResults(t *testing.T) {
	retriever, indexer := setupRetriever(t)
	ctx := context.Background()

	for _, title := range []string{"Reservas grupos", "Reservas terraza", "Reservas eventos"} {
		_, err := indexer.Index(ctx, "tenant-1", Document{
			Title: title, Content: "Informacion sobre reservas: " + title,
		})
		require.NoError(t, err)
	}

	result, err := retriever.Retrieve(ctx, "tenant-1", "quiero informacion de reservas", 2)
	require.NoError(t, err)
	assert.Len(t, result.Sources, 2)
}

func TestIndexRejectsInvalidDocuments(t *testing.T) {
	_, indexer := setupRetriever(t)
	ctx := context.Background()

	_, err := indexer.Index(ctx, "", Document{Title: "x", Content: "y"})
	assert.Error(t, err)

	_, err = indexer.Index(ctx, "tenant-1", Document{Title: "", Content: "y"})
	assert.Error(t, err)
}

func TestExtractSearchTerms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "filters spanish stop words",
			input: "¿cuál es el horario de apertura?",
			want:  []string{"horario", "apertura"},
		},
		{
			name:  "filters english stop words",
			input: "what are your opening hours",
			want:  []string{"opening", "hours"},
		},
		{
			name:  "frequency ordering",
			input: "paella paella marisco",
			want:  []string{"paella", "marisco"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSearchTerms(tt.input))
		})
	}
}
