package featureflags

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var flagsBucket = []byte("feature_flags")

// BoltRepository stores flags as JSON documents keyed by flag key.
type BoltRepository struct {
	db *bolt.DB
}

// NewBoltRepository creates the feature_flags bucket if needed.
func NewBoltRepository(db *bolt.DB) (*BoltRepository, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(flagsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bucket: %w", flagsBucket, err)
	}
	return &BoltRepository{db: db}, nil
}

// GetFlag retrieves a single feature flag by key.
func (r *BoltRepository) GetFlag(_ context.Context, key string) (*Flag, error) {
	var flag *Flag
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(flagsBucket).Get([]byte(key))
		if data == nil {
			return ErrFlagNotFound
		}
		flag = &Flag{}
		return json.Unmarshal(data, flag)
	})
	if err != nil {
		return nil, err
	}
	return flag, nil
}

// GetAllFlags retrieves all stored flags.
func (r *BoltRepository) GetAllFlags(_ context.Context) (map[string]*Flag, error) {
	flags := make(map[string]*Flag)
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(flagsBucket).ForEach(func(k, v []byte) error {
			var flag Flag
			if err := json.Unmarshal(v, &flag); err != nil {
				return fmt.Errorf("decode flag %s: %w", k, err)
			}
			flags[flag.Key] = &flag
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// SetFlags writes every flag in one bbolt transaction.
func (r *BoltRepository) SetFlags(_ context.Context, flags []*Flag) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(flagsBucket)
		for _, flag := range flags {
			data, err := json.Marshal(flag)
			if err != nil {
				return fmt.Errorf("encode flag %s: %w", flag.Key, err)
			}
			if err := b.Put([]byte(flag.Key), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteFlag removes a stored flag so that its default applies again.
func (r *BoltRepository) DeleteFlag(_ context.Context, key string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(flagsBucket)
		if b.Get([]byte(key)) == nil {
			return ErrFlagNotFound
		}
		return b.Delete([]byte(key))
	})
}

var _ Repository = (*BoltRepository)(nil)
