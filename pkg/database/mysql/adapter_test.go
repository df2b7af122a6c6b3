package mysql

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"database/sql"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/logger"
)

// newMockAdapter returns a connected adapter backed by go-sqlmock.
func newMockAdapter(t *testing.T, opts ...Option) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	opts = append([]Option{WithOpener(func(string) (*sql.DB, error) { return db, nil })}, opts...)
	a := New(opts...)
	_, err = a.Connect(context.Background(), ConnectParams{Host: "localhost", User: "root"})
	require.NoError(t, err)
	return a, mock
}

func TestConnectDefaultsPort(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var dsn string
	a := New(WithOpener(func(d string) (*sql.DB, error) {
		dsn = d
		return db, nil
	}))

	h, err := a.Connect(context.Background(), ConnectParams{Host: "db.internal", User: "app", Password: "pw", Database: "shop"})
	require.NoError(t, err)

	assert.Contains(t, dsn, "tcp(db.internal:3306)/shop")
	assert.Equal(t, "db.internal:3306", h.Endpoint())
	assert.False(t, h.Secure())
	assert.True(t, a.IsConnected())
	assert.NoError(t, h.Ping(context.Background()))

	got, err := a.Connection()
	require.NoError(t, err)
	assert.Equal(t, h.ID(), got.ID())

	mock.ExpectClose()
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.False(t, a.IsConnected())
	assert.False(t, h.IsValid())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectAppliesCharset(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	mock.ExpectExec("SET NAMES utf8mb4").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	a := New(WithOpener(func(string) (*sql.DB, error) { return db, nil }))
	_, err = a.Connect(context.Background(), ConnectParams{Host: "localhost", Charset: "utf8mb4"})
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectReplacesPreviousSession(t *testing.T) {
	first, firstMock, err := sqlmock.New()
	require.NoError(t, err)
	second, secondMock, err := sqlmock.New()
	require.NoError(t, err)

	pools := []*sql.DB{first, second}
	a := New(WithOpener(func(string) (*sql.DB, error) {
		db := pools[0]
		pools = pools[1:]
		return db, nil
	}))

	h1, err := a.Connect(context.Background(), ConnectParams{Host: "a"})
	require.NoError(t, err)

	firstMock.ExpectClose()
	h2, err := a.Connect(context.Background(), ConnectParams{Host: "b"})
	require.NoError(t, err)

	assert.False(t, h1.IsValid())
	assert.True(t, h2.IsValid())
	assert.NotEqual(t, h1.ID(), h2.ID())
	assert.NoError(t, firstMock.ExpectationsWereMet())

	secondMock.ExpectClose()
	require.NoError(t, a.Close())
	assert.NoError(t, secondMock.ExpectationsWereMet())
}

func TestConnectFailure(t *testing.T) {
	a := New(WithOpener(func(string) (*sql.DB, error) {
		return nil, errors.New("dial tcp: connection refused")
	}))

	_, err := a.Connect(context.Background(), ConnectParams{Host: "nowhere", Port: 3307})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))

	var connErr *adapter.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 3307, connErr.Port)
	assert.False(t, a.IsConnected())
}

func TestClosedAdapterRejectsOperations(t *testing.T) {
	a, mock := newMockAdapter(t)
	ctx := context.Background()

	mock.ExpectQuery("SHOW TABLES").WillReturnRows(sqlmock.NewRows([]string{"Tables_in_app"}).AddRow("users"))
	rs, err := a.Query(ctx, "SHOW TABLES")
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, a.Close())
	assert.False(t, a.IsConnected())

	_, err = a.Connection()
	assert.True(t, adapter.IsNotConnected(err))

	checks := map[string]error{
		"prepare":  a.Prepare(ctx, "q", "SELECT 1"),
		"bind":     a.Bind("q", "i", 1),
		"encoding": a.SetEncoding(ctx, "utf8mb4"),
		"begin":    a.BeginTransaction(ctx),
		"commit":   a.Commit(),
	}
	_, checks["execute"] = a.Execute(ctx, "q")
	_, checks["query"] = a.Query(ctx, "SELECT 1")
	_, checks["lock"] = a.Lock(ctx, "x", time.Second)
	_, checks["unlock"] = a.Unlock(ctx, "x")
	_, checks["statement"] = a.Statement("q")
	_, _, checks["affected"] = a.AffectedRows("q")

	for op, err := range checks {
		assert.True(t, adapter.IsNotConnected(err), op)
		assert.True(t, adapter.IsInvalidState(err), op)
	}

	_, err = a.FetchRow(rs)
	assert.True(t, adapter.IsInvalidState(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEncodingRejectsBadCharset(t *testing.T) {
	a, mock := newMockAdapter(t)

	err := a.SetEncoding(context.Background(), "utf8; DROP TABLE users")
	assert.True(t, adapter.IsConfigurationError(err))

	mock.ExpectExec("SET NAMES latin1").WillReturnError(errors.New("Unknown character set"))
	err = a.SetEncoding(context.Background(), "latin1")
	var dbErr *adapter.DatabaseError
	assert.ErrorAs(t, err, &dbErr)

	mock.ExpectClose()
	require.NoError(t, a.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactions(t *testing.T) {
	a, mock := newMockAdapter(t)
	ctx := context.Background()

	assert.True(t, adapter.IsInvalidState(a.Commit()))
	assert.True(t, adapter.IsInvalidState(a.Rollback()))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO audit (event) VALUES (?)").WithArgs("login").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, a.BeginTransaction(ctx))
	assert.True(t, a.InTransaction())
	assert.True(t, adapter.IsInvalidState(a.BeginTransaction(ctx)))

	rs, err := a.Query(ctx, "INSERT INTO audit (event) VALUES (?)", "login")
	require.NoError(t, err)
	assert.Nil(t, rs)
	require.NoError(t, a.Commit())
	assert.False(t, a.InTransaction())

	// Close rolls back a transaction left open.
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectClose()
	require.NoError(t, a.BeginTransaction(ctx))
	require.NoError(t, a.Close())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func writeKeyPair(t *testing.T, fs afero.Fs) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "facade-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	require.NoError(t, afero.WriteFile(fs, "/certs/client.pem", certPEM, 0o600))
	require.NoError(t, afero.WriteFile(fs, "/certs/client.key", keyPEM, 0o600))
	require.NoError(t, afero.WriteFile(fs, "/certs/ca.pem", certPEM, 0o600))
	require.NoError(t, afero.WriteFile(fs, "/certs/garbage.pem", []byte("not a certificate"), 0o600))
}

func TestConnectSecure(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeKeyPair(t, fs)

	log := logger.NewNop()
	entries := log.Subscribe()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var dsn string
	a := New(WithLogger(log), WithFs(fs), WithOpener(func(d string) (*sql.DB, error) {
		dsn = d
		return db, nil
	}))

	h, err := a.ConnectSecure(context.Background(), ConnectParams{Host: "db.internal"}, TLSParams{
		KeyFile:          "/certs/client.key",
		CertFile:         "/certs/client.pem",
		CAFile:           "/certs/ca.pem",
		VerifyServerCert: false,
	})
	require.NoError(t, err)

	assert.Contains(t, dsn, "tls=redb-facade-")
	assert.True(t, h.Secure())
	assert.True(t, h.InsecureTLS())

	warned := false
	for len(entries) > 0 {
		if e := <-entries; e.Level == "WARN" {
			warned = true
		}
	}
	assert.True(t, warned)

	mock.ExpectClose()
	require.NoError(t, a.Close())
	assert.Empty(t, a.tlsName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectSecureBadMaterial(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeKeyPair(t, fs)

	opened := false
	a := New(WithFs(fs), WithOpener(func(string) (*sql.DB, error) {
		opened = true
		return nil, errors.New("unreachable")
	}))

	tests := []struct {
		name   string
		params TLSParams
		field  string
	}{
		{"missing cert file", TLSParams{CertFile: "/certs/absent.pem", KeyFile: "/certs/client.key"}, "ssl_cert"},
		{"key without cert", TLSParams{KeyFile: "/certs/client.key"}, "ssl_cert"},
		{"mismatched pair", TLSParams{CertFile: "/certs/client.pem", KeyFile: "/certs/client.pem"}, "ssl_cert"},
		{"bad ca", TLSParams{CAFile: "/certs/garbage.pem"}, "ssl_root_cert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.ConnectSecure(context.Background(), ConnectParams{Host: "db"}, tt.params)
			require.Error(t, err)
			var confErr *adapter.ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
	assert.False(t, opened)
}

func TestConnectWithConfig(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var dsn string
	a := New(WithOpener(func(d string) (*sql.DB, error) {
		dsn = d
		return db, nil
	}))

	_, err = a.ConnectWithConfig(context.Background(), adapter.ConnectionConfig{
		ConnectionType: "mysql",
		Host:           "db",
		Port:           3310,
		Username:       "svc",
		Password:       "pw",
		DatabaseName:   "inventory",
	})
	require.NoError(t, err)
	assert.Contains(t, dsn, "svc:pw@tcp(db:3310)/inventory")

	mock.ExpectClose()
	require.NoError(t, a.Close())
}

func TestRegisteredFactory(t *testing.T) {
	conn, err := adapter.New("mariadb", nil)
	require.NoError(t, err)
	_, ok := conn.(*Adapter)
	assert.True(t, ok)
}
