// Package parse prints what the facade understands from a connection string.
package parse

import (
	"fmt"
	"io"

	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"gopkg.in/yaml.v3"
)

// Result is the YAML document printed by Run.
type Result struct {
	Connection   *dbcapabilities.ConnectionDetails `yaml:"connection"`
	Capabilities dbcapabilities.Capability         `yaml:"capabilities"`
}

// Run parses connectionString and writes the details as YAML to out.
// Passwords are never printed.
func Run(out io.Writer, connectionString string) error {
	details, err := dbcapabilities.ParseConnectionString(connectionString)
	if err != nil {
		return err
	}

	res := Result{Connection: details}
	if c, ok := dbcapabilities.GetByName(details.DatabaseType); ok {
		res.Capabilities = c
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return enc.Close()
}
