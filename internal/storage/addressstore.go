// Package storage is the durable client-side store behind checkout: the
// saved shipping address and the save-address preference. It stands in for
// the browser localStorage of the original app, one JSON file per session
// key, no expiry.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/giftbloom/storefront/internal/models"
)

// AddressStore persists addresses under a state directory.
type AddressStore struct {
	dir string
}

type record struct {
	Address        *models.Address `json:"savedShippingAddress,omitempty"`
	SavePreference bool            `json:"saveAddressPreference"`
}

// NewAddressStore creates the state directory if needed.
func NewAddressStore(dir string) (*AddressStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &AddressStore{dir: dir}, nil
}

func (s *AddressStore) path(key string) string {
	return filepath.Join(s.dir, "addr-"+key+".json")
}

func (s *AddressStore) read(key string) record {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return record{}
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// corrupt state is treated as absent, same as a failed JSON.parse
		log.WithField("key", key).Warn("Discarding corrupt saved address: ", err)
		return record{}
	}
	return rec
}

func (s *AddressStore) write(key string, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode saved address: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("write saved address: %w", err)
	}
	return nil
}

// Load returns the saved address (if any) and the save preference.
func (s *AddressStore) Load(key string) (addr models.Address, saved bool, preference bool) {
	rec := s.read(key)
	if rec.Address != nil {
		addr = *rec.Address
		saved = true
	}
	return addr, saved, rec.SavePreference
}

// SaveAddress persists the address snapshot. Called write-through on every
// field edit while the preference is on.
func (s *AddressStore) SaveAddress(key string, addr models.Address) error {
	rec := s.read(key)
	rec.Address = &addr
	rec.SavePreference = true
	return s.write(key, rec)
}

// SetPreference persists the save-address flag. Turning it off deletes the
// stored address; the preference and the data share lifecycle when
// disabled.
func (s *AddressStore) SetPreference(key string, on bool) error {
	rec := s.read(key)
	rec.SavePreference = on
	if !on {
		rec.Address = nil
	}
	return s.write(key, rec)
}
