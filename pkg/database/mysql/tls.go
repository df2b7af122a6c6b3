package mysql

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/redbco/redb-facade/pkg/anchor/adapter"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
)

// TLSParams holds the client certificate material of a secure session.
type TLSParams struct {
	KeyFile  string
	CertFile string
	CAFile   string

	// VerifyServerCert=false accepts any server certificate
	VerifyServerCert bool

	// ServerName overrides the host name checked against the server certificate
	ServerName string
}

func (a *Adapter) buildTLSConfig(host string, p TLSParams) (*tls.Config, error) {
	serverName := p.ServerName
	if serverName == "" {
		serverName = host
	}
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: serverName,
	}

	if p.CertFile != "" || p.KeyFile != "" {
		if p.CertFile == "" || p.KeyFile == "" {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "ssl_cert", "client certificate and key must be given together")
		}
		certPEM, err := afero.ReadFile(a.fs, p.CertFile)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "ssl_cert", err.Error())
		}
		keyPEM, err := afero.ReadFile(a.fs, p.KeyFile)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "ssl_key", err.Error())
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "ssl_cert", fmt.Sprintf("invalid key pair: %v", err))
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if p.CAFile != "" {
		caPEM, err := afero.ReadFile(a.fs, p.CAFile)
		if err != nil {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "ssl_root_cert", err.Error())
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, adapter.NewConfigurationError(dbcapabilities.MySQL, "ssl_root_cert", "no certificates found in "+p.CAFile)
		}
		cfg.RootCAs = pool
	}

	if !p.VerifyServerCert {
		cfg.InsecureSkipVerify = true
	}

	return cfg, nil
}

// registerTLSConfig registers cfg with the driver under a unique name.
func registerTLSConfig(cfg *tls.Config) (string, error) {
	name := "redb-facade-" + uuid.New().String()
	if err := mysql.RegisterTLSConfig(name, cfg); err != nil {
		return "", err
	}
	return name, nil
}
