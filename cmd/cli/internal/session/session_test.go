package session

import (
	"bytes"
	"testing"

	"github.com/redbco/redb-facade/pkg/config"
	"github.com/redbco/redb-facade/pkg/keyring"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLAccount(t *testing.T) {
	cfg := config.Default()
	cfg.MySQL.User = "app"
	cfg.MySQL.Host = "db.internal"
	cfg.MySQL.Port = 3307
	assert.Equal(t, "mysql/app@db.internal:3307", MySQLAccount(&cfg))
}

func TestLookupPassword(t *testing.T) {
	cfg := config.Default()
	s := New(&cfg, nil, &bytes.Buffer{})
	s.Keyring = keyring.NewFileStore(afero.NewMemMapFs(), "/k.json", "master")

	account := MySQLAccount(&cfg)
	assert.Empty(t, s.lookupPassword(account))

	require.NoError(t, s.Keyring.Set(keyring.ServiceName, account, "pw"))
	assert.Equal(t, "pw", s.lookupPassword(account))
}

func TestCredentialStoreDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Keyring.Backend = keyring.BackendNone
	s := New(&cfg, nil, &bytes.Buffer{})

	store, err := s.CredentialStore()
	require.NoError(t, err)
	assert.Equal(t, keyring.BackendNone, store.Backend())
	assert.Empty(t, s.lookupPassword("mysql/root@localhost:3306"))
}

func TestCredentialStoreMisconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Keyring.Backend = keyring.BackendFile
	s := New(&cfg, nil, &bytes.Buffer{})

	_, err := s.CredentialStore()
	assert.Error(t, err)
	assert.Empty(t, s.lookupPassword("mysql/root@localhost:3306"))
}
