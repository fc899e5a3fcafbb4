package storage

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mongoclient "github.com/uqac-logement/backend/internal/infrastructure/clients/mongo"
	"github.com/uqac-logement/backend/pkg/config"
	apperrors "github.com/uqac-logement/backend/pkg/errors"
)

func TestGridFSStorage_RoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := mongoclient.NewClient(&config.MongoConfig{URI: uri, Database: "uqac_logement_test", Bucket: "images_test"})
	require.NoError(t, err)
	defer client.Close(context.Background())

	store, err := NewGridFSStorage(client)
	require.NoError(t, err)
	ctx := context.Background()

	id, err := store.Upload(ctx, "photo.png", "image/png", strings.NewReader("pngbytes"))
	require.NoError(t, err)

	reader, obj, err := store.Open(ctx, id)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, "pngbytes", string(data))
	assert.Equal(t, "image/png", obj.ContentType)

	require.NoError(t, store.Delete(ctx, id))
	_, _, err = store.Open(ctx, id)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestGridFSStorage_OpenRejectsMalformedID(t *testing.T) {
	store := &GridFSStorage{}
	_, _, err := store.Open(context.Background(), "not-hex")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.NoError(t, store.Delete(context.Background(), "not-hex"))
}
