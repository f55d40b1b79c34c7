package index

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/sha3"

	"privacy-node/internal/model"
	"privacy-node/internal/storage"
)

const keyPrefix = "QPG:"

// Index answers "which privacy group IDs exist for exactly this participant
// set". Records are keyed by the digest of the order-normalized address set;
// the ID list is append-only, which is what lets a legacy pairwise group and
// a later explicit group over the same pair coexist.
type Index struct {
	store storage.Store
}

func New(store storage.Store) *Index {
	return &Index{store: store}
}

// Key computes the index key for a participant set. Order-insensitive.
func Key(addresses []string) string {
	sorted := append([]string(nil), addresses...)
	sort.Strings(sorted)

	h := sha3.New512()
	for _, a := range sorted {
		h.Write([]byte(a))
		h.Write([]byte{0})
	}
	return keyPrefix + base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Add appends a group ID to the record for the exact address set, creating
// the record if needed. Adding an ID that is already listed is a no-op, so
// retried workflows converge.
func (ix *Index) Add(addresses []string, id []byte) error {
	record, err := ix.load(addresses)
	if err != nil {
		return err
	}
	record.GroupToModify = id
	record.ToDelete = false
	return ix.apply(record)
}

// Remove drops a group ID from the record for the address set. No workflow
// calls this on group deletion: the ID list is append-only and readers filter
// on group state, so a tombstoned group stops matching without index writes.
// Remove exists for cleanup when a group record is purged from the store
// outright and its ID would otherwise dangle in the record forever. Missing
// records and unlisted IDs are no-ops.
func (ix *Index) Remove(addresses []string, id []byte) error {
	record, err := ix.load(addresses)
	if err != nil {
		return err
	}
	record.GroupToModify = id
	record.ToDelete = true
	return ix.apply(record)
}

// Find returns every group ID associated with the exact address set.
func (ix *Index) Find(addresses []string) ([][]byte, error) {
	value, err := ix.store.Get(Key(addresses))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: load record: %w", err)
	}
	var record model.QueryPrivacyGroupPayload
	if err := model.Unmarshal(value, &record); err != nil {
		return nil, fmt.Errorf("index: decode record: %w", err)
	}
	return record.PrivacyGroupIDs, nil
}

func (ix *Index) load(addresses []string) (*model.QueryPrivacyGroupPayload, error) {
	value, err := ix.store.Get(Key(addresses))
	if errors.Is(err, storage.ErrNotFound) {
		return &model.QueryPrivacyGroupPayload{Addresses: append([]string(nil), addresses...)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: load record: %w", err)
	}
	record := &model.QueryPrivacyGroupPayload{}
	if err := model.Unmarshal(value, record); err != nil {
		return nil, fmt.Errorf("index: decode record: %w", err)
	}
	return record, nil
}

// apply folds the transient write intent into the persisted list.
func (ix *Index) apply(record *model.QueryPrivacyGroupPayload) error {
	ids := record.PrivacyGroupIDs
	if record.ToDelete {
		kept := ids[:0]
		for _, existing := range ids {
			if !bytes.Equal(existing, record.GroupToModify) {
				kept = append(kept, existing)
			}
		}
		record.PrivacyGroupIDs = kept
	} else {
		for _, existing := range ids {
			if bytes.Equal(existing, record.GroupToModify) {
				return nil
			}
		}
		record.PrivacyGroupIDs = append(ids, record.GroupToModify)
	}

	record.GroupToModify = nil
	record.ToDelete = false
	value, err := model.Marshal(record)
	if err != nil {
		return fmt.Errorf("index: encode record: %w", err)
	}
	if err := ix.store.Update(Key(record.Addresses), value); err != nil {
		return fmt.Errorf("index: persist record: %w", err)
	}
	return nil
}
