// Package keyringcred keeps management-endpoint credentials in the
// operating system keyring, so catalogs and config files never carry
// passwords.
package keyringcred

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/patchwave/patchwave/internal/domain"
)

const defaultService = "patchwave"

// Credentials is one basic-auth pair for a management endpoint.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store reads and writes [Credentials] keyed by endpoint URL. The zero
// value uses the default keyring service name.
type Store struct {
	// Service is the keyring service name. Empty means "patchwave".
	Service string
}

func (s *Store) service() string {
	if s.Service == "" {
		return defaultService
	}
	return s.Service
}

// Save stores the credentials for endpoint, replacing any previous entry.
func (s *Store) Save(endpoint string, cred Credentials) error {
	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service(), endpoint, string(b)); err != nil {
		return fmt.Errorf("store credentials for %s: %w", endpoint, err)
	}
	return nil
}

// Lookup returns the credentials for endpoint, or [domain.ErrNotFound]
// when none are stored.
func (s *Store) Lookup(endpoint string) (Credentials, error) {
	secret, err := keyring.Get(s.service(), endpoint)
	if errors.Is(err, keyring.ErrNotFound) {
		return Credentials{}, fmt.Errorf("%w: no credentials for %s", domain.ErrNotFound, endpoint)
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials for %s: %w", endpoint, err)
	}

	var cred Credentials
	if err := json.Unmarshal([]byte(secret), &cred); err != nil {
		return Credentials{}, fmt.Errorf("stored credentials for %s are malformed: %w", endpoint, err)
	}
	return cred, nil
}

// Delete removes the credentials for endpoint. Deleting an absent entry
// returns [domain.ErrNotFound].
func (s *Store) Delete(endpoint string) error {
	err := keyring.Delete(s.service(), endpoint)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: no credentials for %s", domain.ErrNotFound, endpoint)
	}
	if err != nil {
		return fmt.Errorf("delete credentials for %s: %w", endpoint, err)
	}
	return nil
}
