// Package secret stores short secrets by account name under one service
// namespace.
package secret

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/zalando/go-keyring"
)

const DefaultService = "TranslateGemini"

// Store is the load/save-by-account capability.
type Store interface {
	Load(account string) (string, bool)
	Save(account, value string) bool
}

// Keyring keeps secrets in the OS credential store (Keychain, Secret Service,
// Windows Credential Manager).
type Keyring struct {
	Service string
}

func NewKeyring(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{Service: service}
}

func (k *Keyring) Load(account string) (string, bool) {
	v, err := keyring.Get(k.Service, account)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			slog.Warn("secret: load failed", "service", k.Service, "account", account, "err", err)
		}
		return "", false
	}
	return v, true
}

// Save creates or replaces the secret.
func (k *Keyring) Save(account, value string) bool {
	if err := keyring.Set(k.Service, account, value); err != nil {
		slog.Warn("secret: save failed", "service", k.Service, "account", account, "err", err)
		return false
	}
	return true
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory { return &Memory{values: map[string]string{}} }

func (m *Memory) Load(account string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[account]
	return v, ok
}

func (m *Memory) Save(account, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[account] = value
	return true
}
