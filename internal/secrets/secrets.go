/*
 * This file is part of Voxrec (https://github.com/voxlabs/voxrec).
 * Copyright (C) 2025 Vox Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package secrets stores provider credentials behind a small keyed interface.
// Keys are stable identifiers; values never appear in logs.
package secrets

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// Credential keys for the cloud transcription providers
const (
	KeyGoogleSpeechAPI = "google_speech_to_text_api_key"
	KeyOpenAIWhisper   = "openai_whisper_api_key"
)

// ErrNotFound is returned when no value is stored under the requested key
var ErrNotFound = errors.New("secret not found")

// Store is a keyed credential store
type Store interface {
	Put(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
	Exists(key string) bool
}

// MemoryStore keeps credentials in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Put(key, value string) error {
	if key == "" {
		return errors.New("secret key must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// EnvStore reads credentials from environment variables, mapping a key like
// "google_speech_to_text_api_key" to "VOXREC_GOOGLE_SPEECH_TO_TEXT_API_KEY".
// Writes are rejected; the environment is owned by the deployment.
type EnvStore struct {
	prefix string
}

// NewEnvStore creates a read-only store over VOXREC_-prefixed env vars
func NewEnvStore() *EnvStore {
	return &EnvStore{prefix: "VOXREC_"}
}

func (s *EnvStore) envName(key string) string {
	return s.prefix + strings.ToUpper(key)
}

func (s *EnvStore) Put(key, value string) error {
	return errors.New("environment-backed store is read-only")
}

func (s *EnvStore) Get(key string) (string, error) {
	value := os.Getenv(s.envName(key))
	if value == "" {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *EnvStore) Delete(key string) error {
	return errors.New("environment-backed store is read-only")
}

func (s *EnvStore) Exists(key string) bool {
	return os.Getenv(s.envName(key)) != ""
}

// Layered resolves reads through stores in order, first hit wins. Writes go
// to the first store that accepts them.
type Layered struct {
	stores []Store
}

// NewLayered builds a layered store; earlier stores shadow later ones
func NewLayered(stores ...Store) *Layered {
	return &Layered{stores: stores}
}

func (l *Layered) Put(key, value string) error {
	var lastErr error
	for _, s := range l.stores {
		if err := s.Put(key, value); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no store available")
	}
	return lastErr
}

func (l *Layered) Get(key string) (string, error) {
	for _, s := range l.stores {
		if value, err := s.Get(key); err == nil {
			return value, nil
		}
	}
	return "", ErrNotFound
}

func (l *Layered) Delete(key string) error {
	var lastErr error
	for _, s := range l.stores {
		if err := s.Delete(key); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (l *Layered) Exists(key string) bool {
	for _, s := range l.stores {
		if s.Exists(key) {
			return true
		}
	}
	return false
}
