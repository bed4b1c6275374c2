// Package credentials owns durable persistence of the session: access
// token, refresh token and the cached user profile. All other code goes
// through the Store interface; nothing else touches the session file.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

// Store is the narrow persistence interface the dispatcher and feature
// services depend on.
//
// Getters return the zero value when nothing was ever stored (or it was
// cleared); storage failures propagate. Setters treat an empty token as
// a logged no-op so an invalid token is never persisted silently.
// Clearing is best-effort and never fails: logout must always succeed
// locally even when storage is broken.
type Store interface {
	AccessToken() (string, error)
	SetAccessToken(token string) error
	RefreshToken() (string, error)
	SetRefreshToken(token string) error
	ClearTokens()

	User() (*models.User, error)
	SetUser(u *models.User) error
	ClearUser()
}

// session is the on-disk document.
type session struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *models.User `json:"user,omitempty"`
}

// FileStore persists the session as a single JSON file, written
// atomically (temp file + rename) under a cross-process lock file.
// Survives app restarts; removed only by explicit clearing.
type FileStore struct {
	path string
	log  zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string, log zerolog.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (s *FileStore) AccessToken() (string, error) {
	sess, err := s.read()
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

func (s *FileStore) SetAccessToken(token string) error {
	if token == "" {
		s.log.Warn().Msg("credentials: ignoring empty access token")
		return nil
	}
	return s.update(func(sess *session) {
		sess.AccessToken = token
	})
}

func (s *FileStore) RefreshToken() (string, error) {
	sess, err := s.read()
	if err != nil {
		return "", err
	}
	return sess.RefreshToken, nil
}

func (s *FileStore) SetRefreshToken(token string) error {
	if token == "" {
		s.log.Warn().Msg("credentials: ignoring empty refresh token")
		return nil
	}
	return s.update(func(sess *session) {
		sess.RefreshToken = token
	})
}

// ClearTokens removes both tokens. Idempotent and best-effort: a
// storage failure is logged, never returned.
func (s *FileStore) ClearTokens() {
	err := s.update(func(sess *session) {
		sess.AccessToken = ""
		sess.RefreshToken = ""
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("credentials: failed to clear tokens")
	}
}

func (s *FileStore) User() (*models.User, error) {
	sess, err := s.read()
	if err != nil {
		return nil, err
	}
	return sess.User, nil
}

func (s *FileStore) SetUser(u *models.User) error {
	if u == nil {
		s.log.Warn().Msg("credentials: ignoring nil user profile")
		return nil
	}
	return s.update(func(sess *session) {
		sess.User = u
	})
}

// ClearUser removes the cached profile. Idempotent and best-effort.
func (s *FileStore) ClearUser() {
	err := s.update(func(sess *session) {
		sess.User = nil
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("credentials: failed to clear user profile")
	}
}

// read loads the session document. A missing file is an empty session,
// not an error; any other storage failure propagates.
func (s *FileStore) read() (session, error) {
	var sess session

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return sess, nil
		}
		return sess, fmt.Errorf("failed to read session file: %w", err)
	}

	if err := json.Unmarshal(data, &sess); err != nil {
		return session{}, fmt.Errorf("failed to parse session file: %w", err)
	}

	return sess, nil
}

// update performs a locked read-modify-write of the session document.
// The write goes to a temp file first and is renamed into place so a
// crash never leaves a half-written session behind.
func (s *FileStore) update(fn func(*session)) error {
	lock, err := acquireFileLock(s.path)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			s.log.Warn().Err(releaseErr).Msg("credentials: failed to release lock")
		}
	}()

	// Load inside the lock for a consistent read-modify-write. An
	// unreadable document starts fresh rather than wedging the store.
	var sess session
	if data, readErr := os.ReadFile(s.path); readErr == nil {
		if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil {
			s.log.Warn().Err(unmarshalErr).Msg("credentials: resetting corrupt session file")
			sess = session{}
		}
	}

	fn(&sess)

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, s.path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// MemoryStore is an in-memory Store for tests and ephemeral sessions.
type MemoryStore struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	user         *models.User
	log          zerolog.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{log: log}
}

func (s *MemoryStore) AccessToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken, nil
}

func (s *MemoryStore) SetAccessToken(token string) error {
	if token == "" {
		s.log.Warn().Msg("credentials: ignoring empty access token")
		return nil
	}
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) RefreshToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken, nil
}

func (s *MemoryStore) SetRefreshToken(token string) error {
	if token == "" {
		s.log.Warn().Msg("credentials: ignoring empty refresh token")
		return nil
	}
	s.mu.Lock()
	s.refreshToken = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearTokens() {
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.mu.Unlock()
}

func (s *MemoryStore) User() (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, nil
}

func (s *MemoryStore) SetUser(u *models.User) error {
	if u == nil {
		s.log.Warn().Msg("credentials: ignoring nil user profile")
		return nil
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ClearUser() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
