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

package secrets

import (
	"errors"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()

	if store.Exists(KeyGoogleSpeechAPI) {
		t.Error("Exists() = true on empty store")
	}
	if _, err := store.Get(KeyGoogleSpeechAPI); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := store.Put(KeyGoogleSpeechAPI, "g-key-123"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value, err := store.Get(KeyGoogleSpeechAPI)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "g-key-123" {
		t.Errorf("Get() = %q, want %q", value, "g-key-123")
	}
	if !store.Exists(KeyGoogleSpeechAPI) {
		t.Error("Exists() = false after Put")
	}

	if err := store.Delete(KeyGoogleSpeechAPI); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Exists(KeyGoogleSpeechAPI) {
		t.Error("Exists() = true after Delete")
	}
}

func TestMemoryStore_EmptyKey(t *testing.T) {
	if err := NewMemoryStore().Put("", "x"); err == nil {
		t.Error("Put(\"\") expected error")
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("VOXREC_OPENAI_WHISPER_API_KEY", "sk-test")

	store := NewEnvStore()
	value, err := store.Get(KeyOpenAIWhisper)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "sk-test" {
		t.Errorf("Get() = %q, want %q", value, "sk-test")
	}
	if !store.Exists(KeyOpenAIWhisper) {
		t.Error("Exists() = false for set env var")
	}
	if store.Exists(KeyGoogleSpeechAPI) {
		t.Error("Exists() = true for unset env var")
	}

	if err := store.Put(KeyOpenAIWhisper, "x"); err == nil {
		t.Error("Put() on env store expected error")
	}
	if err := store.Delete(KeyOpenAIWhisper); err == nil {
		t.Error("Delete() on env store expected error")
	}
}

func TestLayeredShadowing(t *testing.T) {
	t.Setenv("VOXREC_GOOGLE_SPEECH_TO_TEXT_API_KEY", "from-env")

	mem := NewMemoryStore()
	layered := NewLayered(mem, NewEnvStore())

	// Env value visible through the stack
	value, err := layered.Get(KeyGoogleSpeechAPI)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "from-env" {
		t.Errorf("Get() = %q, want env value", value)
	}

	// Memory layer shadows it
	if err := layered.Put(KeyGoogleSpeechAPI, "from-mem"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	value, err = layered.Get(KeyGoogleSpeechAPI)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "from-mem" {
		t.Errorf("Get() = %q, want memory value", value)
	}
}
