package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDurableRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := NewSQLiteDurable(filepath.Join(t.TempDir(), "participa.db"))
	defer d.Close()

	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	name := "Maria"
	m := testManifestation("2026101900100", at)
	m.Name = &name
	m.Attachments = []model.Attachment{{Type: model.AttachmentImage, TypeLabel: "Imagem", Name: "foto.png", Size: 10, Description: "Imagem 1"}}

	require.NoError(t, d.Put(ctx, m))

	got, err := d.Get(ctx, "2026101900100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Buraco na via", got.Description)
	assert.Equal(t, "Maria", *got.Name)
	assert.True(t, got.SubmittedAt.Equal(at))
	assert.Len(t, got.Attachments, 1)
	assert.Equal(t, model.NoteReceived, got.History[0].Description)

	// Upsert
	m.Status = model.StatusUnderReview
	require.NoError(t, d.Put(ctx, m))
	got, err = d.Get(ctx, "2026101900100")
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnderReview, got.Status)

	missing, err := d.Get(ctx, "0000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteDurableSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	d := NewSQLiteDurable(path)
	_, err := d.Get(context.Background(), "x")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, sqliteSchemaVersion, version)

	// Reopening an up-to-date database is a no-op
	again := NewSQLiteDurable(path)
	defer again.Close()
	_, err = again.Get(context.Background(), "x")
	assert.NoError(t, err)
}

func TestSQLiteDurableOpenFailure(t *testing.T) {
	d := NewSQLiteDurable(filepath.Join(t.TempDir(), "missing", "dir", "participa.db"))
	err := d.Put(context.Background(), testManifestation("2026101900101", time.Now()))
	assert.Error(t, err)

	// The store keeps serving from the cache
	store := NewManifestationStore(d, 10)
	require.NoError(t, store.Put(context.Background(), testManifestation("2026101900102", time.Now())))
	_, err = store.Get(context.Background(), "2026101900102")
	assert.NoError(t, err)
}

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisDurable) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisDurable(client, "participa_df:manifestacoes:")
}

func TestRedisDurableRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, d := setupTestRedis(t)
	defer d.Close()

	m := testManifestation("2026101900200", time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC))
	require.NoError(t, d.Put(ctx, m))

	assert.True(t, mr.Exists("participa_df:manifestacoes:2026101900200"))
	version, err := mr.Get("participa_df:manifestacoes:schema_version")
	require.NoError(t, err)
	assert.Equal(t, "1", version)

	got, err := d.Get(ctx, "2026101900200")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.Protocol, got.Protocol)
	assert.Equal(t, m.Department, got.Department)
	assert.True(t, got.Deadline.Equal(m.Deadline))

	missing, err := d.Get(ctx, "0000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisDurableRejectsNewerSchema(t *testing.T) {
	mr, d := setupTestRedis(t)
	defer d.Close()
	require.NoError(t, mr.Set("participa_df:manifestacoes:schema_version", "9"))

	err := d.Put(context.Background(), testManifestation("2026101900201", time.Now()))
	assert.Error(t, err)
}

func TestRedisDurableUnavailable(t *testing.T) {
	mr, d := setupTestRedis(t)
	defer d.Close()
	store := NewManifestationStore(d, 10)
	mr.Close()

	// Durable failures never fail the write
	require.NoError(t, store.Put(context.Background(), testManifestation("2026101900202", time.Now())))
	got, err := store.Get(context.Background(), "2026101900202")
	require.NoError(t, err)
	assert.Equal(t, "2026101900202", got.Protocol)
}
