package credstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"housepass/internal/auth/models"
)

// FileStore keeps the credential in a sealed file under the state
// directory. Door stations run unattended, so the sealing key derives from a
// machine-local secret file rather than an operator passphrase.
type FileStore struct {
	path    string
	keyPath string
	logger  *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithLogger sets the logger used for swallowed read failures.
func WithLogger(logger *slog.Logger) FileOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore creates a file-backed credential store. path holds the sealed
// credential, keyPath the machine secret (created on first use, 0600).
func NewFileStore(path, keyPath string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path:    path,
		keyPath: keyPath,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FileStore) Save(_ context.Context, cred *models.Credential) error {
	if cred == nil || cred.RefreshToken == "" {
		return fmt.Errorf("credstore: nothing to save")
	}

	secret, err := s.machineSecret()
	if err != nil {
		return fmt.Errorf("credstore save: %w", err)
	}

	plaintext, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("credstore marshal: %w", err)
	}

	sealed, err := seal(plaintext, secret)
	if err != nil {
		return fmt.Errorf("credstore seal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("credstore mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, sealed, 0600); err != nil {
		return fmt.Errorf("credstore write: %w", err)
	}
	return nil
}

// Load returns the stored credential, or (nil, nil) when nothing usable is
// on disk. Unreadable or tampered files read as absent: the worst outcome
// of a lost credential is one extra login, while a hard failure here would
// block startup.
func (s *FileStore) Load(_ context.Context) (*models.Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("credential file unreadable, treating as absent", "path", s.path, "error", err)
		return nil, nil
	}

	secret, err := s.machineSecret()
	if err != nil {
		s.logger.Warn("machine secret unavailable, treating credential as absent", "error", err)
		return nil, nil
	}

	plaintext, err := unseal(data, secret)
	if err != nil {
		s.logger.Warn("credential file unseal failed, treating as absent", "error", err)
		return nil, nil
	}

	var cred models.Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		s.logger.Warn("credential file corrupt, treating as absent", "error", err)
		return nil, nil
	}
	if cred.RefreshToken == "" {
		return nil, nil
	}
	return &cred, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("credstore clear: %w", err)
	}
	return nil
}

// machineSecret loads the sealing secret, creating it on first use.
func (s *FileStore) machineSecret() ([]byte, error) {
	secret, err := os.ReadFile(s.keyPath)
	if err == nil && len(secret) >= keySize {
		return secret, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read machine secret: %w", err)
	}

	secret = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("generate machine secret: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.keyPath), 0700); err != nil {
		return nil, fmt.Errorf("mkdir for machine secret: %w", err)
	}
	if err := os.WriteFile(s.keyPath, secret, 0600); err != nil {
		return nil, fmt.Errorf("write machine secret: %w", err)
	}
	return secret, nil
}
