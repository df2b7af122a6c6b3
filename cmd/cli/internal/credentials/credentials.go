// Package credentials manages backend passwords kept in the keyring.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/redbco/redb-facade/cmd/cli/internal/session"
	"github.com/redbco/redb-facade/pkg/dbcapabilities"
	"github.com/redbco/redb-facade/pkg/keyring"
	"golang.org/x/term"
)

// Account resolves the keyring account for the named backend. Only the
// relational backend keeps its password apart from a URI.
func Account(s *session.Session, name string) (string, error) {
	dbType, ok := dbcapabilities.ParseID(name)
	if !ok {
		return "", fmt.Errorf("unknown database type %q", name)
	}
	if dbType != dbcapabilities.MySQL {
		return "", fmt.Errorf("%s credentials belong in its connection URI", dbType)
	}
	return session.MySQLAccount(s.Config), nil
}

// Set stores secret for the named backend.
func Set(s *session.Session, name, secret string) error {
	if secret == "" {
		return errors.New("password must not be empty")
	}
	account, err := Account(s, name)
	if err != nil {
		return err
	}
	store, err := s.CredentialStore()
	if err != nil {
		return err
	}
	if err := store.Set(keyring.ServiceName, account, secret); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	s.Printf("✅ Stored password for %s in the %s keyring\n", account, store.Backend())
	return nil
}

// Delete removes the stored secret for the named backend.
func Delete(s *session.Session, name string) error {
	account, err := Account(s, name)
	if err != nil {
		return err
	}
	store, err := s.CredentialStore()
	if err != nil {
		return err
	}
	err = store.Delete(keyring.ServiceName, account)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		s.Printf("ℹ️  No password stored for %s\n", account)
		return nil
	case err != nil:
		return fmt.Errorf("failed to delete password: %w", err)
	}
	s.Printf("✅ Deleted password for %s\n", account)
	return nil
}

// ReadSecret reads a password from in without echo when in is a terminal,
// otherwise it reads one line.
func ReadSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
