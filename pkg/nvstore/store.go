package nvstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StoreVersion is the current version of the store file format.
const StoreVersion = 1

// Well-known namespaces.
const (
	// NamespaceConfig holds runtime configuration values.
	NamespaceConfig = "config"

	// NamespaceCredentials holds session credential material (nonce state).
	// Kept apart from configuration so a configuration reset never destroys
	// nonce history.
	NamespaceCredentials = "credentials"
)

// storeFile is the on-disk representation of the store.
type storeFile struct {
	// Version is the store file format version.
	Version int `json:"version"`

	// SavedAt is when the store was last written.
	SavedAt time.Time `json:"saved_at"`

	// Namespaces maps namespace name to key/value pairs.
	Namespaces map[string]map[string]json.RawMessage `json:"namespaces,omitempty"`
}

// Store manages persistence of namespaced key-value pairs to a JSON file.
// A zero value is not usable; create with NewStore.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a new store backed by the given file path.
// The file is created on first Put.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Put stores a value under namespace/key, creating the namespace if needed.
// The value must be JSON-serializable. The file is written atomically.
func (s *Store) Put(namespace, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	data, err := s.read()
	if err != nil {
		return err
	}
	if data.Namespaces == nil {
		data.Namespaces = make(map[string]map[string]json.RawMessage)
	}
	if data.Namespaces[namespace] == nil {
		data.Namespaces[namespace] = make(map[string]json.RawMessage)
	}
	data.Namespaces[namespace][key] = raw

	return s.write(data)
}

// Get retrieves the value stored under namespace/key into out.
// The second return value reports whether the key was present.
func (s *Store) Get(namespace, key string, out any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return false, err
	}
	ns, ok := data.Namespaces[namespace]
	if !ok {
		return false, nil
	}
	raw, ok := ns[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

// Delete removes a key from a namespace. Deleting a missing key is a no-op.
func (s *Store) Delete(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	ns, ok := data.Namespaces[namespace]
	if !ok {
		return nil
	}
	if _, ok := ns[key]; !ok {
		return nil
	}
	delete(ns, key)
	return s.write(data)
}

// Clear removes the store file entirely.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// read loads the current store file. A missing file yields an empty store.
func (s *Store) read() (*storeFile, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeFile{Version: StoreVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	data := &storeFile{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, err
	}
	return data, nil
}

// write persists the store file atomically (temp file + rename) so a power
// loss mid-write never corrupts the previous contents.
func (s *Store) write(data *storeFile) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data.Version = StoreVersion
	data.SavedAt = time.Now()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".nvstore-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}
