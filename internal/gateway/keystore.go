package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// keystoreFile is the on-disk JSON format for the encrypted authority
// seed. A gateway holds exactly one authority key at a time; rotation
// replaces the file.
type keystoreFile struct {
	Version       int       `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	Address       string    `json:"address"` // derived authority address, informational
	EncryptedSeed []byte    `json:"encrypted_seed"`
}

const keystoreVersion = 1

// Keystore manages the encrypted authority seed on disk.
type Keystore struct {
	path string
}

// NewKeystore opens a keystore rooted at dir, creating it if needed.
func NewKeystore(dir string) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: dir}, nil
}

func (ks *Keystore) filePath() string {
	return filepath.Join(ks.path, "authority.key")
}

// Exists reports whether an authority key has been initialized.
func (ks *Keystore) Exists() bool {
	_, err := os.Stat(ks.filePath())
	return err == nil
}

// Create encrypts and stores a fresh authority seed. Refuses to
// overwrite an existing key.
func (ks *Keystore) Create(seed, password []byte, address string, params EncryptionParams) error {
	if ks.Exists() {
		return fmt.Errorf("authority key already exists at %s", ks.filePath())
	}

	encrypted, err := Encrypt(seed, password, params)
	if err != nil {
		return fmt.Errorf("encrypt seed: %w", err)
	}

	kf := keystoreFile{
		Version:       keystoreVersion,
		CreatedAt:     time.Now().UTC(),
		Address:       address,
		EncryptedSeed: encrypted,
	}
	data, err := json.MarshalIndent(&kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal keystore: %w", err)
	}
	if err := os.WriteFile(ks.filePath(), data, 0600); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	return nil
}

// Load decrypts the stored authority seed.
func (ks *Keystore) Load(password []byte) ([]byte, error) {
	data, err := os.ReadFile(ks.filePath())
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if kf.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version: %d", kf.Version)
	}

	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: %w", err)
	}
	return seed, nil
}

// Address returns the stored informational address without decrypting.
func (ks *Keystore) Address() (string, error) {
	data, err := os.ReadFile(ks.filePath())
	if err != nil {
		return "", fmt.Errorf("read keystore: %w", err)
	}
	var kf keystoreFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return "", fmt.Errorf("parse keystore: %w", err)
	}
	return kf.Address, nil
}

// Delete removes the authority key file.
func (ks *Keystore) Delete() error {
	if !ks.Exists() {
		return fmt.Errorf("no authority key at %s", ks.filePath())
	}
	return os.Remove(ks.filePath())
}
