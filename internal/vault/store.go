package vault

import (
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
)

const credentialBucketName = "credentials"

// maskSeparator joins the visible head and tail of a masked credential
const maskSeparator = "..."

// Store defines the interface for provider credential operations. Credentials
// are opaque strings keyed by provider ID; the scanning pipeline only reads
// them, management surfaces write them.
type Store interface {
	// Exists reports whether a credential is stored for the provider
	Exists(providerID string) (bool, error)

	// Get retrieves a credential, reporting whether one was stored
	Get(providerID string) (string, bool, error)

	// Set stores a credential for the provider
	Set(providerID, value string) error

	// Delete removes the provider's credential
	Delete(providerID string) error

	// MaskedDisplay returns a display-safe form of the stored credential
	MaskedDisplay(providerID string) (string, bool, error)

	// Close closes the underlying store
	Close() error
}

// BoltStore implements the Store interface using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a new BoltStore instance
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(credentialBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Exists reports whether a credential is stored for the provider
func (b *BoltStore) Exists(providerID string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucketName))
		found = bucket.Get([]byte(providerID)) != nil
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking credential: %w", err)
	}
	return found, nil
}

// Get retrieves a credential by provider ID
func (b *BoltStore) Get(providerID string) (string, bool, error) {
	var value string
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucketName))
		data := bucket.Get([]byte(providerID))
		if data != nil {
			value = string(data)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("getting credential: %w", err)
	}
	return value, found, nil
}

// Set stores a credential for the provider
func (b *BoltStore) Set(providerID, value string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucketName))
		return bucket.Put([]byte(providerID), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Delete removes the provider's credential. Deleting an absent credential is
// not an error.
func (b *BoltStore) Delete(providerID string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(credentialBucketName))
		return bucket.Delete([]byte(providerID))
	})
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// MaskedDisplay returns a display-safe form of the stored credential
func (b *BoltStore) MaskedDisplay(providerID string) (string, bool, error) {
	value, found, err := b.Get(providerID)
	if err != nil || !found {
		return "", found, err
	}
	return maskCredential(value), true, nil
}

// Close closes the database
func (b *BoltStore) Close() error {
	return b.db.Close()
}

// maskCredential keeps the first 7 and last 3 characters of keys long enough
// to stay unguessable; short keys are fully masked at their original length.
func maskCredential(value string) string {
	if len(value) > 12 {
		return value[:7] + maskSeparator + value[len(value)-3:]
	}
	return strings.Repeat("*", len(value))
}
