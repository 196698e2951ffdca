package storage

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM nearby_preferences`).
		WithArgs("alice/search_radius").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("1"))

	store := NewPostgresStore(mock)
	got, ok, err := store.Get(context.Background(), "alice/search_radius")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM nearby_preferences`).
		WithArgs("alice/cached_location").
		WillReturnError(pgx.ErrNoRows)

	store := NewPostgresStore(mock)
	got, ok, err := store.Get(context.Background(), "alice/cached_location")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM nearby_preferences`).
		WithArgs("alice/search_radius").
		WillReturnError(assert.AnError)

	store := NewPostgresStore(mock)
	_, _, err = store.Get(context.Background(), "alice/search_radius")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage: get")
}

func TestPostgresStore_Set(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO nearby_preferences`).
		WithArgs("alice/search_radius", "2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewPostgresStore(mock)
	require.NoError(t, store.Set(context.Background(), "alice/search_radius", "2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS nearby_preferences`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	store := NewPostgresStore(mock)
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPostgres_CreatesSchemaOnce(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS nearby_preferences`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`INSERT INTO nearby_preferences`).
		WithArgs("alice/search_radius", "2").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store, err := OpenPostgres(context.Background(), mock)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "alice/search_radius", "2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPostgres_SchemaError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS nearby_preferences`).
		WillReturnError(assert.AnError)

	_, err = OpenPostgres(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage: create preferences table")
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	require.NoError(t, store.Set(ctx, "k", "v2"))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
}
