// Package registry persists the identifiers the bridge mints so devices keep the same topics and unique ids across
// restarts.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/nlowe/hadevice/log"
)

// ErrNotFound is returned by Lookup for devices that were never assigned an id.
var ErrNotFound = errors.New("not found")

const (
	// devicesBucket holds one nested bucket per location, mapping {category}/{name} to a device id.
	devicesBucket = "devices"
	// metaBucket holds bridge-wide values.
	metaBucket = "_meta"

	clientIDKey = "client_id"

	// ClientIDPrefix prefixes minted MQTT client ids.
	ClientIDPrefix = "hadevice-"
)

// Registry is a bbolt backed store of minted identifiers. It is safe for concurrent use.
type Registry struct {
	db  *bbolt.DB
	log *slog.Logger
}

// Open opens or creates the registry database at path.
func Open(path string) (*Registry, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open registry %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range []string{devicesBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
				return fmt.Errorf("create %s bucket: %w", b, err)
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Registry{
		db:  db,
		log: log.ForComponent("registry").With(slog.String("path", path)),
	}, nil
}

// Close releases the database file.
func (r *Registry) Close() error {
	return r.db.Close()
}

func deviceKey(category, name string) []byte {
	return []byte(category + "/" + name)
}

// DeviceID returns the id assigned to the device, minting and persisting a UUIDv7 the first time it is asked for.
func (r *Registry) DeviceID(locationID, category, name string) (string, error) {
	var id string
	err := r.db.Update(func(tx *bbolt.Tx) error {
		location, err := tx.Bucket([]byte(devicesBucket)).CreateBucketIfNotExists([]byte(locationID))
		if err != nil {
			return fmt.Errorf("create location bucket: %w", err)
		}

		key := deviceKey(category, name)
		if existing := location.Get(key); existing != nil {
			id = string(existing)
			return nil
		}

		minted, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("mint device id: %w", err)
		}

		id = minted.String()
		return location.Put(key, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("device id for %s/%s: %w", category, name, err)
	}

	r.log.With(
		slog.String("location_id", locationID),
		slog.String("category", category),
		slog.String("name", name),
		slog.String("device_id", id),
	).Debug("Resolved device id")

	return id, nil
}

// Lookup returns the id previously assigned to the device without minting one.
func (r *Registry) Lookup(locationID, category, name string) (string, error) {
	var id string
	err := r.db.View(func(tx *bbolt.Tx) error {
		location := tx.Bucket([]byte(devicesBucket)).Bucket([]byte(locationID))
		if location == nil {
			return ErrNotFound
		}

		existing := location.Get(deviceKey(category, name))
		if existing == nil {
			return ErrNotFound
		}

		id = string(existing)
		return nil
	})

	return id, err
}

// Forget removes the id assigned to the device. Forgetting an unknown device is not an error.
func (r *Registry) Forget(locationID, category, name string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		location := tx.Bucket([]byte(devicesBucket)).Bucket([]byte(locationID))
		if location == nil {
			return nil
		}

		return location.Delete(deviceKey(category, name))
	})
}

// ClientID returns the MQTT client id for this bridge, minting one the first time it is asked for.
func (r *Registry) ClientID() (string, error) {
	var id string
	err := r.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(metaBucket))
		if existing := meta.Get([]byte(clientIDKey)); existing != nil {
			id = string(existing)
			return nil
		}

		minted, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("mint client id: %w", err)
		}

		id = ClientIDPrefix + minted.String()
		return meta.Put([]byte(clientIDKey), []byte(id))
	})

	return id, err
}
