package credentials_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/infrastructure/credentials"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestStoreGet(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
[default]
consumer_key = consumer
access_token = access

[work]
consumer_key = other-consumer
access_token = other-access
`)
	store, err := credentials.NewStore(path)
	require.NoError(t, err)

	got, err := store.Get("default")
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{ConsumerKey: "consumer", AccessToken: "access"}, got)

	got, err = store.Get("work")
	require.NoError(t, err)
	assert.Equal(t, "other-consumer", got.ConsumerKey)
}

func TestStoreMissingAccount(t *testing.T) {
	t.Parallel()

	store, err := credentials.NewStore(writeFile(t, "[default]\nconsumer_key = a\naccess_token = b\n"))
	require.NoError(t, err)

	_, err = store.Get("nobody")
	var credErr *domain.CredentialError
	require.True(t, errors.As(err, &credErr))
	assert.Equal(t, "nobody", credErr.Account)
	assert.ErrorIs(t, err, domain.ErrNoCredentials)
}

func TestStoreIncompleteAccount(t *testing.T) {
	t.Parallel()

	store, err := credentials.NewStore(writeFile(t, "[default]\nconsumer_key = a\n"))
	require.NoError(t, err)

	_, err = store.Get("default")
	assert.ErrorIs(t, err, domain.ErrNoCredentials)
}

func TestStoreMissingFile(t *testing.T) {
	t.Parallel()

	store, err := credentials.NewStore(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)

	_, err = store.Get("default")
	assert.ErrorIs(t, err, domain.ErrNoCredentials)
}

func TestNewStoreExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	store, err := credentials.NewStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".pocket", "credentials"), store.Path())
}
