package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EnvCacheDir relocates the session cache.
const EnvCacheDir = "TOKENDESK_CACHE_DIR"

// sessionFilePath returns the per-user session cache file.
//
//	macOS:   ~/Library/Caches/tokendesk/session.json
//	Linux:   ~/.cache/tokendesk/session.json
//	Windows: %LocalAppData%\tokendesk\session.json
func sessionFilePath() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return filepath.Join(dir, "session.json")
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "tokendesk", "session.json")
}

// loadSessionKeys returns the cached key map, empty (never nil) on any error.
func loadSessionKeys() map[string]string {
	data, err := os.ReadFile(sessionFilePath())
	if err != nil {
		return make(map[string]string)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return make(map[string]string)
	}
	return m
}

func saveSessionKeys(m map[string]string) error {
	path := sessionFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	_ = os.Chmod(path, 0o600)
	return nil
}

// GetSessionKey returns a cached key for ref, or ("", false) if not cached.
func GetSessionKey(ref string) (string, bool) {
	v, ok := loadSessionKeys()[ref]
	return v, ok
}

// SessionUnlocked reports whether a wallet name is in the session cache.
func SessionUnlocked(name string) bool {
	_, ok := GetSessionKey(KeyRef(name))
	return ok
}

// PutSessionKeys merges keys into the session file in a single read+write.
func PutSessionKeys(keys map[string]string) error {
	if len(keys) == 0 {
		return nil
	}
	m := loadSessionKeys()
	for ref, hexKey := range keys {
		m[ref] = hexKey
	}
	return saveSessionKeys(m)
}

// RemoveSessionKey evicts a single key from the session file.
func RemoveSessionKey(ref string) {
	m := loadSessionKeys()
	if _, ok := m[ref]; !ok {
		return
	}
	delete(m, ref)
	_ = saveSessionKeys(m)
}

// ClearSession removes all cached keys by deleting the session file.
func ClearSession() error {
	err := os.Remove(sessionFilePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SessionActive reports whether any key is cached.
func SessionActive() bool {
	return len(loadSessionKeys()) > 0
}
