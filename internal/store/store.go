// Package store persists pipeline state in an embedded bbolt file: site
// graph snapshots, documents, topic aggregates, and per-source refresh
// status. The layout is an internal contract; callers only see the typed
// read/write methods.
package store

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/jonesrussell/goinsight/internal/domain"
	"github.com/jonesrussell/goinsight/internal/sitegraph"
)

// Bucket names.
var (
	bucketGraphs    = []byte("graphs")
	bucketDocuments = []byte("documents")
	bucketTopics    = []byte("topics")
	bucketStatus    = []byte("status")
)

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketGraphs, bucketDocuments, bucketTopics, bucketStatus} {
			if _, createErr := tx.CreateBucketIfNotExists(name); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init store buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveGraph persists a source's graph snapshot, keyed by slug.
func (s *Store) SaveGraph(snap *sitegraph.Snapshot) error {
	return s.put(bucketGraphs, []byte(snap.SourceSlug), snap)
}

// Graph loads a source's graph snapshot. Returns (nil, nil) when the
// source has never been crawled.
func (s *Store) Graph(slug string) (*sitegraph.Snapshot, error) {
	var snap sitegraph.Snapshot
	found, err := s.get(bucketGraphs, []byte(slug), &snap)
	if err != nil || !found {
		return nil, err
	}
	return &snap, nil
}

// SaveDocument persists a document keyed by fingerprint.
func (s *Store) SaveDocument(doc *domain.Document) error {
	return s.put(bucketDocuments, []byte(doc.Fingerprint), doc)
}

// Document loads a document by fingerprint. Returns (nil, nil) when absent.
func (s *Store) Document(fingerprint string) (*domain.Document, error) {
	var doc domain.Document
	found, err := s.get(bucketDocuments, []byte(fingerprint), &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

// Documents returns every stored document in key order.
func (s *Store) Documents() ([]*domain.Document, error) {
	var out []*domain.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(_, v []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			out = append(out, &doc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

// SaveTopicAggregate persists a topic's ordered fingerprint list.
func (s *Store) SaveTopicAggregate(agg *domain.TopicAggregate) error {
	return s.put(bucketTopics, []byte(agg.TopicID), agg)
}

// TopicAggregate loads one topic's aggregate. Returns (nil, nil) when the
// topic has no documents yet.
func (s *Store) TopicAggregate(topicID string) (*domain.TopicAggregate, error) {
	var agg domain.TopicAggregate
	found, err := s.get(bucketTopics, []byte(topicID), &agg)
	if err != nil || !found {
		return nil, err
	}
	return &agg, nil
}

// TopicAggregates returns every non-empty topic aggregate in key order.
func (s *Store) TopicAggregates() ([]*domain.TopicAggregate, error) {
	var out []*domain.TopicAggregate
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTopics).ForEach(func(_, v []byte) error {
			var agg domain.TopicAggregate
			if err := json.Unmarshal(v, &agg); err != nil {
				return err
			}
			out = append(out, &agg)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return out, nil
}

// SaveStatus persists a source's latest cycle status.
func (s *Store) SaveStatus(status *domain.SourceStatus) error {
	return s.put(bucketStatus, []byte(status.Slug), status)
}

// Status loads a source's latest cycle status. Returns (nil, nil) when the
// source has never run.
func (s *Store) Status(slug string) (*domain.SourceStatus, error) {
	var status domain.SourceStatus
	found, err := s.get(bucketStatus, []byte(slug), &status)
	if err != nil || !found {
		return nil, err
	}
	return &status, nil
}

// Statuses returns every source status in key order.
func (s *Store) Statuses() ([]*domain.SourceStatus, error) {
	var out []*domain.SourceStatus
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketStatus).ForEach(func(_, v []byte) error {
			var status domain.SourceStatus
			if err := json.Unmarshal(v, &status); err != nil {
				return err
			}
			out = append(out, &status)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return out, nil
}

// put JSON-encodes value under key in the named bucket.
func (s *Store) put(bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", bucket, key, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// get decodes the value under key. The boolean reports presence.
func (s *Store) get(bucket, key []byte, out any) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal %s/%s: %w", bucket, key, err)
	}
	return true, nil
}
