// Package keyring stores backend credentials outside the configuration file,
// in the OS keyring when one is reachable and in an encrypted file otherwise.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ServiceName namespaces every entry this package writes.
const ServiceName = "redb-facade"

// Backends accepted by Open.
const (
	BackendAuto   = "auto"
	BackendSystem = "system"
	BackendFile   = "file"
	BackendNone   = "none"
)

var (
	// ErrNotFound is returned when no secret is stored for the account.
	ErrNotFound = errors.New("credential not found")
	// ErrDisabled is returned by every operation of the "none" backend.
	ErrDisabled = errors.New("credential store disabled")
)

// Store keeps one secret per (service, account) pair.
type Store interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
	Backend() string
}

// Options configures Open.
type Options struct {
	// Backend is auto, system, file or none; empty means auto
	Backend string
	// Path of the file store; DefaultPath() when empty
	Path string
	// MasterPassword derives the file store's key
	MasterPassword string
	// Fs backs the file store; the OS filesystem when nil
	Fs afero.Fs
	// ProbeTimeout bounds the auto backend's system keyring check
	ProbeTimeout time.Duration
}

// Open returns the store selected by opts. The auto backend probes the system
// keyring and falls back to the file store when it is unreachable.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendAuto:
		timeout := opts.ProbeTimeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		if probeSystem(timeout) == nil {
			return SystemStore{}, nil
		}
		return openFile(opts)
	case BackendSystem:
		return SystemStore{}, nil
	case BackendFile:
		return openFile(opts)
	case BackendNone:
		return noneStore{}, nil
	default:
		return nil, fmt.Errorf("unknown keyring backend %q", opts.Backend)
	}
}

func openFile(opts Options) (Store, error) {
	if opts.MasterPassword == "" {
		return nil, errors.New("file keyring needs a master password (keyring.password)")
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath()
	}
	return NewFileStore(fs, path, opts.MasterPassword), nil
}

// probeSystem writes and removes a throwaway entry. Some desktop keyrings
// block on an unlock prompt, so the check gives up after timeout.
func probeSystem(timeout time.Duration) error {
	const probeAccount = "probe"

	done := make(chan error, 1)
	go func() {
		err := keyring.Set(ServiceName+"-probe", probeAccount, "ok")
		if err == nil {
			_ = keyring.Delete(ServiceName+"-probe", probeAccount)
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("system keyring did not answer within %s", timeout)
	}
}

// DefaultPath is the file store location under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "redb-facade-keyring.json")
	}
	return filepath.Join(dir, "redb-facade", "keyring.json")
}

// SystemStore uses the OS keyring (Secret Service, Keychain, Credential Manager).
type SystemStore struct{}

// Backend returns BackendSystem.
func (SystemStore) Backend() string { return BackendSystem }

// Set stores secret in the OS keyring.
func (SystemStore) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

// Get reads a secret from the OS keyring, or returns ErrNotFound.
func (SystemStore) Get(service, account string) (string, error) {
	s, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return s, err
}

// Delete removes a secret from the OS keyring, or returns ErrNotFound.
func (SystemStore) Delete(service, account string) error {
	err := keyring.Delete(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

type noneStore struct{}

func (noneStore) Backend() string                { return BackendNone }
func (noneStore) Set(_, _, _ string) error        { return ErrDisabled }
func (noneStore) Get(_, _ string) (string, error) { return "", ErrDisabled }
func (noneStore) Delete(_, _ string) error        { return ErrDisabled }

// FileStore keeps AES-GCM encrypted entries in a JSON file. The key is
// derived from the master password with argon2id and a per-file salt; a bcrypt
// hash of the password rejects a wrong one before anything is decrypted.
type FileStore struct {
	fs       afero.Fs
	path     string
	password []byte

	mu      sync.Mutex
	key     []byte
	keySalt string
}

type fileData struct {
	Salt     string               `json:"salt"`
	Verifier string               `json:"verifier"`
	Entries  map[string]fileEntry `json:"entries"`
}

type fileEntry struct {
	Service string `json:"service"`
	Account string `json:"account"`
	Data    string `json:"data"`
}

// ErrWrongPassword is returned when the master password does not open the file.
var ErrWrongPassword = errors.New("wrong keyring master password")

// NewFileStore returns a store at path opened with masterPassword.
func NewFileStore(fs afero.Fs, path, masterPassword string) *FileStore {
	return &FileStore{fs: fs, path: path, password: []byte(masterPassword)}
}

// Backend returns BackendFile.
func (f *FileStore) Backend() string { return BackendFile }

// Set encrypts secret and writes it to the file, creating the file on first use.
func (f *FileStore) Set(service, account, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, err := f.load()
	if err != nil {
		return err
	}
	data, err := f.encrypt(d, secret)
	if err != nil {
		return err
	}
	d.Entries[entryKey(service, account)] = fileEntry{Service: service, Account: account, Data: data}
	return f.save(d)
}

// Get decrypts the stored secret, or returns ErrNotFound.
func (f *FileStore) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, err := f.load()
	if err != nil {
		return "", err
	}
	e, ok := d.Entries[entryKey(service, account)]
	if !ok {
		return "", ErrNotFound
	}
	return f.decrypt(d, e.Data)
}

// Delete removes the entry from the file, or returns ErrNotFound.
func (f *FileStore) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d, err := f.load()
	if err != nil {
		return err
	}
	k := entryKey(service, account)
	if _, ok := d.Entries[k]; !ok {
		return ErrNotFound
	}
	delete(d.Entries, k)
	return f.save(d)
}

func entryKey(service, account string) string {
	return service + ":" + account
}

// load reads the file, or initialises a fresh salt and verifier when it does
// not exist yet.
func (f *FileStore) load() (*fileData, error) {
	raw, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read keyring: %w", err)
		}
		return f.fresh()
	}

	d := &fileData{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("failed to parse keyring %s: %w", f.path, err)
	}
	if d.Entries == nil {
		d.Entries = make(map[string]fileEntry)
	}
	if d.Salt == "" || d.Verifier == "" {
		return nil, fmt.Errorf("keyring %s is missing its salt or verifier", f.path)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(d.Verifier), f.password); err != nil {
		return nil, ErrWrongPassword
	}
	return d, nil
}

func (f *FileStore) fresh() (*fileData, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	verifier, err := bcrypt.GenerateFromPassword(f.password, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash master password: %w", err)
	}
	return &fileData{
		Salt:     base64.StdEncoding.EncodeToString(salt),
		Verifier: string(verifier),
		Entries:  make(map[string]fileEntry),
	}, nil
}

func (f *FileStore) save(d *fileData) error {
	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return afero.WriteFile(f.fs, f.path, raw, 0o600)
}

// gcm derives (once per salt) the file key and returns the AEAD for it.
func (f *FileStore) gcm(d *fileData) (cipher.AEAD, error) {
	if f.key == nil || f.keySalt != d.Salt {
		salt, err := base64.StdEncoding.DecodeString(d.Salt)
		if err != nil {
			return nil, fmt.Errorf("invalid keyring salt: %w", err)
		}
		f.key = argon2.IDKey(f.password, salt, 1, 64*1024, 4, 32)
		f.keySalt = d.Salt
	}
	block, err := aes.NewCipher(f.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (f *FileStore) encrypt(d *fileData, plaintext string) (string, error) {
	gcm, err := f.gcm(d)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

func (f *FileStore) decrypt(d *fileData, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	gcm, err := f.gcm(d)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt entry: %w", err)
	}
	return string(plain), nil
}
