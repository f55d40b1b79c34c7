package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"privacy-node/internal/directory"
	"privacy-node/internal/enclave"
	"privacy-node/internal/index"
	"privacy-node/internal/logger"
	"privacy-node/internal/model"
	"privacy-node/internal/session"
	"privacy-node/internal/storage"
)

const legacyGroupName = "legacy"
const legacyGroupDescription = "Privacy group to support private transactions without an explicit group"

// CreateRequest drives the create-privacy-group workflow.
type CreateRequest struct {
	Addresses   []string `json:"addresses" binding:"required"`
	From        string   `json:"from" binding:"required"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Seed        []byte   `json:"seed"`
}

// AddMemberRequest drives the add-to-privacy-group workflow.
type AddMemberRequest struct {
	Address        string `json:"address" binding:"required"`
	From           string `json:"from" binding:"required"`
	PrivacyGroupID []byte `json:"privacyGroupId" binding:"required"`
}

// DeleteRequest drives the delete-privacy-group workflow.
type DeleteRequest struct {
	PrivacyGroupID []byte `json:"privacyGroupId" binding:"required"`
	From           string `json:"from" binding:"required"`
}

// DeleteResponse reports the terminal state of a deleted group.
type DeleteResponse struct {
	State model.PrivacyGroupState `json:"state"`
}

// FindRequest looks up the groups visible to an exact participant set.
type FindRequest struct {
	Addresses []string `json:"addresses" binding:"required"`
}

// RetrieveRequest fetches a single group by ID.
type RetrieveRequest struct {
	PrivacyGroupID []byte `json:"privacyGroupId" binding:"required"`
}

// SendRequest relays an encrypted payload to a set of recipients. When
// PrivacyGroupID is absent the send is a legacy point-to-point transaction
// and an implicit LEGACY group over sender+recipients is reconciled.
type SendRequest struct {
	Payload        []byte   `json:"payload" binding:"required"`
	From           string   `json:"from" binding:"required"`
	To             []string `json:"to"`
	PrivacyGroupID []byte   `json:"privacyGroupId"`
}

// SendResponse returns the key the stored payload can be retrieved with.
type SendResponse struct {
	Key string `json:"key"`
}

// ReceiveRequest fetches and decrypts a stored payload for a local identity.
type ReceiveRequest struct {
	Key string `json:"key" binding:"required"`
	To  string `json:"to" binding:"required"`
}

// ReceiveResponse carries the decrypted payload.
type ReceiveResponse struct {
	Payload []byte `json:"payload"`
}

// Service orchestrates the privacy group lifecycle and payload relay. Every
// mutation fans out to the member nodes and commits locally only after all
// peers acknowledged; peers that accepted before a failure are not rolled
// back, and a retry with the same seed converges on the same group ID.
//
// No optimistic-concurrency token guards concurrent mutations of the same
// group; the last commit to land at the store wins.
type Service struct {
	enclave  *enclave.Enclave
	store    storage.Store
	index    *index.Index
	peers    *directory.Directory
	pusher   Pusher
	sessions *session.Manager
	selfURL  string
}

func NewService(enc *enclave.Enclave, store storage.Store, ix *index.Index, peers *directory.Directory, pusher Pusher, sessions *session.Manager, selfURL string) *Service {
	return &Service{
		enclave:  enc,
		store:    store,
		index:    ix,
		peers:    peers,
		pusher:   pusher,
		sessions: sessions,
		selfURL:  selfURL,
	}
}

// GroupKey is the storage key a group ID maps to. The key is pinned at
// creation: add-member and delete overwrite the record in place so the
// public ID never changes.
func GroupKey(id []byte) string {
	return base64.StdEncoding.EncodeToString(id)
}

// CreatePrivacyGroup builds a PANTHEON group over the requested addresses,
// pushes it to every member node and commits locally once all acked with the
// ID they recomputed.
func (s *Service) CreatePrivacyGroup(ctx context.Context, req *CreateRequest) (*model.PrivacyGroup, error) {
	if !contains(req.Addresses, req.From) {
		return nil, newError(CodeCreateGroupIncludeSelf, "the list of addresses must include the sender %q", req.From)
	}
	addresses, err := s.checkAddresses(req.Addresses)
	if err != nil {
		return nil, err
	}

	seed := req.Seed
	if len(seed) == 0 {
		if seed, err = enclave.GenerateSeed(); err != nil {
			return nil, wrapError(CodeStorage, err, "generate seed")
		}
	}

	payload := &model.PrivacyGroupPayload{
		Addresses:   addresses,
		Name:        req.Name,
		Description: req.Description,
		State:       model.StateActive,
		Type:        model.TypePantheon,
		RandomSeed:  seed,
	}
	id := s.enclave.GeneratePrivacyGroupID(addresses, seed, model.TypePantheon)

	targets, err := s.resolveTargets(addresses)
	if err != nil {
		return nil, err
	}
	err = s.fanOut(ctx, id, targets, func(ctx context.Context, url string) error {
		acked, err := s.pusher.PushPrivacyGroup(ctx, url, payload)
		if err != nil {
			return err
		}
		if !bytes.Equal(acked, id) {
			return fmt.Errorf("peer %s acknowledged mismatched group ID", url)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistGroup(id, payload); err != nil {
		return nil, err
	}
	if err := s.index.Add(addresses, id); err != nil {
		return nil, wrapError(CodeStorage, err, "update query index")
	}
	logger.Log.Infof("Created privacy group %s with %d members", GroupKey(id), len(addresses))
	return summary(id, payload), nil
}

// AddToPrivacyGroup widens a group's membership. The group ID stays
// byte-identical: the combined payload is pushed to every member of the
// widened set under the original, explicitly carried ID.
func (s *Service) AddToPrivacyGroup(ctx context.Context, req *AddMemberRequest) (*model.PrivacyGroup, error) {
	group, err := s.loadGroup(req.PrivacyGroupID)
	if err != nil {
		return nil, err
	}
	if group.State != model.StateActive {
		return nil, newError(CodePrivacyGroupMissing, "privacy group %s is not active", GroupKey(req.PrivacyGroupID))
	}
	if !group.HasAddress(req.From) {
		return nil, newError(CodeAddMemberIncludeSelf, "the sender %q is not a member of privacy group %s", req.From, GroupKey(req.PrivacyGroupID))
	}
	if _, err := s.enclave.ReadKey(req.Address); err != nil {
		return nil, wrapError(CodeKeyDecode, err, "malformed member key %q", req.Address)
	}

	combined := distinct(append(append([]string(nil), group.Addresses...), req.Address))
	updated := *group
	updated.Addresses = combined

	targets, err := s.resolveTargets(combined, req.From)
	if err != nil {
		return nil, err
	}
	err = s.fanOut(ctx, req.PrivacyGroupID, targets, func(ctx context.Context, url string) error {
		return s.pusher.SetPrivacyGroup(ctx, url, req.PrivacyGroupID, &updated)
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistGroup(req.PrivacyGroupID, &updated); err != nil {
		return nil, err
	}
	if err := s.index.Add(combined, req.PrivacyGroupID); err != nil {
		return nil, wrapError(CodeStorage, err, "update query index")
	}
	logger.Log.Infof("Added %s to privacy group %s", req.Address, GroupKey(req.PrivacyGroupID))
	return summary(req.PrivacyGroupID, &updated), nil
}

// DeletePrivacyGroup tombstones a group. Deleting an already deleted group is
// a conflict, not a no-op. The tombstone propagates to every remaining
// member before the local commit so find-results stay consistent
// cluster-wide.
func (s *Service) DeletePrivacyGroup(ctx context.Context, req *DeleteRequest) (*DeleteResponse, error) {
	group, err := s.loadGroup(req.PrivacyGroupID)
	if err != nil {
		return nil, err
	}
	if group.State == model.StateDeleted {
		return nil, newError(CodePrivacyGroupDeleted, "privacy group %s is already deleted", GroupKey(req.PrivacyGroupID))
	}

	tombstone := *group
	tombstone.State = model.StateDeleted

	targets, err := s.resolveTargets(group.Addresses, req.From)
	if err != nil {
		return nil, err
	}
	err = s.fanOut(ctx, req.PrivacyGroupID, targets, func(ctx context.Context, url string) error {
		return s.pusher.DeletePrivacyGroup(ctx, url, req.PrivacyGroupID, &tombstone)
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistGroup(req.PrivacyGroupID, &tombstone); err != nil {
		return nil, err
	}
	logger.Log.Infof("Deleted privacy group %s", GroupKey(req.PrivacyGroupID))
	return &DeleteResponse{State: model.StateDeleted}, nil
}

// FindPrivacyGroup returns every ACTIVE group over exactly the given address
// set. Deleted groups drop out here without any index cleanup.
func (s *Service) FindPrivacyGroup(req *FindRequest) ([]*model.PrivacyGroup, error) {
	ids, err := s.index.Find(req.Addresses)
	if err != nil {
		return nil, wrapError(CodeStorage, err, "query index lookup")
	}

	groups := make([]*model.PrivacyGroup, 0, len(ids))
	for _, id := range ids {
		value, err := s.store.Get(GroupKey(id))
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, wrapError(CodeStorage, err, "load group %s", GroupKey(id))
		}
		var group model.PrivacyGroupPayload
		if err := model.Unmarshal(value, &group); err != nil {
			return nil, wrapError(CodeStorage, err, "decode group %s", GroupKey(id))
		}
		if group.State != model.StateActive {
			continue
		}
		groups = append(groups, summary(id, &group))
	}
	return groups, nil
}

// RetrievePrivacyGroup fetches one group by ID; unknown or non-ACTIVE groups
// read as missing.
func (s *Service) RetrievePrivacyGroup(req *RetrieveRequest) (*model.PrivacyGroup, error) {
	group, err := s.loadGroup(req.PrivacyGroupID)
	if err != nil {
		return nil, err
	}
	if group.State != model.StateActive {
		return nil, newError(CodePrivacyGroupMissing, "privacy group %s is not active", GroupKey(req.PrivacyGroupID))
	}
	return summary(req.PrivacyGroupID, group), nil
}

// Send encrypts a payload for the recipient set, pushes stripped copies to
// every recipient's node and stores the full payload locally under its
// digest key. A send with no explicit group reconciles the implicit LEGACY
// group over sender+recipients.
func (s *Service) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	sender, err := s.enclave.ReadKey(req.From)
	if err != nil {
		return nil, wrapError(CodeKeyDecode, err, "malformed sender key %q", req.From)
	}
	recipients := make([]model.PublicKey, len(req.To))
	for i, to := range req.To {
		if recipients[i], err = s.enclave.ReadKey(to); err != nil {
			return nil, wrapError(CodeKeyDecode, err, "malformed recipient key %q", to)
		}
	}

	payload, err := s.enclave.Encrypt(req.Payload, sender, recipients)
	if err != nil {
		if errors.Is(err, enclave.ErrNoMatchingPrivateKey) {
			return nil, wrapError(CodeNoMatchingPrivateKey, err, "sender key %q is not held by this node", req.From)
		}
		return nil, wrapError(CodeStorage, err, "encrypt payload")
	}

	groupID := req.PrivacyGroupID
	if len(groupID) == 0 {
		members := distinct(append(append([]string(nil), req.To...), req.From))
		if groupID, err = s.reconcileLegacyGroup(ctx, members); err != nil {
			return nil, err
		}
	} else {
		group, err := s.loadGroup(groupID)
		if err != nil {
			return nil, err
		}
		if group.State != model.StateActive {
			return nil, newError(CodePrivacyGroupMissing, "privacy group %s is not active", GroupKey(groupID))
		}
	}
	payload.PrivacyGroupID = groupID

	encoded, err := model.Marshal(payload)
	if err != nil {
		return nil, wrapError(CodeStorage, err, "encode payload")
	}
	key := storage.GenerateDigest(encoded)

	type pushTarget struct {
		url       string
		recipient model.PublicKey
	}
	pushes := make(map[string]pushTarget)
	var targets []string
	for _, r := range recipients {
		if s.enclave.Keys().Holds(r) {
			continue
		}
		url, err := s.peers.Resolve(r.Encode())
		if err != nil {
			return nil, wrapError(CodePropagatingToAllPeers, err, "resolve recipient node")
		}
		if url == s.selfURL {
			continue
		}
		target := url + "#" + r.Encode()
		if _, ok := pushes[target]; ok {
			continue
		}
		pushes[target] = pushTarget{url: url, recipient: r}
		targets = append(targets, target)
	}

	err = s.fanOut(ctx, groupID, targets, func(ctx context.Context, target string) error {
		push := pushes[target]
		acked, err := s.pusher.PushPayload(ctx, push.url, key, payload.StripFor(push.recipient))
		if err != nil {
			return err
		}
		if acked != key {
			return fmt.Errorf("peer %s acknowledged mismatched payload key", push.url)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(key, encoded); err != nil {
		return nil, wrapError(CodeStorage, err, "persist payload")
	}
	return &SendResponse{Key: key}, nil
}

// Receive loads a stored payload and decrypts it for a local identity.
func (s *Service) Receive(req *ReceiveRequest) (*ReceiveResponse, error) {
	value, err := s.store.Get(req.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newError(CodePayloadMissing, "no payload stored under %q", req.Key)
	}
	if err != nil {
		return nil, wrapError(CodeStorage, err, "load payload")
	}
	var payload model.EncryptedPayload
	if err := model.Unmarshal(value, &payload); err != nil {
		return nil, wrapError(CodeStorage, err, "decode payload")
	}

	identity, err := s.enclave.ReadKey(req.To)
	if err != nil {
		return nil, wrapError(CodeKeyDecode, err, "malformed identity key %q", req.To)
	}
	plaintext, err := s.enclave.Decrypt(&payload, identity)
	if err != nil {
		switch {
		case errors.Is(err, enclave.ErrNoMatchingPrivateKey):
			return nil, wrapError(CodeNoMatchingPrivateKey, err, "identity %q is not held by this node", req.To)
		case errors.Is(err, enclave.ErrWrongPrivateKey):
			return nil, wrapError(CodeWrongPrivateKey, err, "identity %q cannot open this payload", req.To)
		}
		return nil, wrapError(CodeStorage, err, "decrypt payload")
	}
	return &ReceiveResponse{Payload: plaintext}, nil
}

// AcceptPrivacyGroup handles a create push from a peer: the ID is recomputed
// from the payload itself, never taken on trust, and returned as the ack.
func (s *Service) AcceptPrivacyGroup(payload *model.PrivacyGroupPayload) ([]byte, error) {
	id := s.enclave.GeneratePrivacyGroupID(payload.Addresses, payload.RandomSeed, payload.Type)
	if err := s.persistGroup(id, payload); err != nil {
		return nil, err
	}
	if err := s.index.Add(payload.Addresses, id); err != nil {
		return nil, wrapError(CodeStorage, err, "update query index")
	}
	logger.Log.Infof("Accepted pushed privacy group %s", GroupKey(id))
	return id, nil
}

// AcceptSetPrivacyGroup handles an add-member push: the record is replaced
// under the explicitly carried ID, which the widened address set can no
// longer reproduce.
func (s *Service) AcceptSetPrivacyGroup(id []byte, payload *model.PrivacyGroupPayload) error {
	if err := s.persistGroup(id, payload); err != nil {
		return err
	}
	if err := s.index.Add(payload.Addresses, id); err != nil {
		return wrapError(CodeStorage, err, "update query index")
	}
	logger.Log.Infof("Accepted updated privacy group %s with %d members", GroupKey(id), len(payload.Addresses))
	return nil
}

// AcceptDeletePrivacyGroup handles a delete push: only tombstones are
// accepted on this endpoint.
func (s *Service) AcceptDeletePrivacyGroup(id []byte, payload *model.PrivacyGroupPayload) error {
	if payload.State != model.StateDeleted {
		return newError(CodeBadRequest, "delete push for %s does not carry a tombstone", GroupKey(id))
	}
	if err := s.persistGroup(id, payload); err != nil {
		return err
	}
	logger.Log.Infof("Accepted deletion of privacy group %s", GroupKey(id))
	return nil
}

// AcceptPayload handles a payload push, filing the (stripped) payload under
// the sender's key so retrieval keys agree across nodes.
func (s *Service) AcceptPayload(key string, payload *model.EncryptedPayload) (string, error) {
	encoded, err := model.Marshal(payload)
	if err != nil {
		return "", wrapError(CodeStorage, err, "encode payload")
	}
	if err := s.store.Update(key, encoded); err != nil {
		return "", wrapError(CodeStorage, err, "persist payload")
	}
	return key, nil
}

// reconcileLegacyGroup ensures the implicit LEGACY group over the member set
// exists cluster-wide. The ID is deterministic (empty seed), so every node
// recomputes the same bytes. Like Create, the record is pushed to the member
// nodes first and committed locally only once all acked: a send that fails
// mid-propagation leaves no local record, so the retry propagates again
// instead of skipping members that never received the push.
func (s *Service) reconcileLegacyGroup(ctx context.Context, addresses []string) ([]byte, error) {
	id := s.enclave.GeneratePrivacyGroupID(addresses, nil, model.TypeLegacy)
	_, err := s.store.Get(GroupKey(id))
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, wrapError(CodeStorage, err, "load legacy group")
	}

	payload := &model.PrivacyGroupPayload{
		Addresses:   addresses,
		Name:        legacyGroupName,
		Description: legacyGroupDescription,
		State:       model.StateActive,
		Type:        model.TypeLegacy,
	}

	targets, err := s.resolveTargets(addresses)
	if err != nil {
		return nil, err
	}
	err = s.fanOut(ctx, id, targets, func(ctx context.Context, url string) error {
		acked, err := s.pusher.PushPrivacyGroup(ctx, url, payload)
		if err != nil {
			return err
		}
		if !bytes.Equal(acked, id) {
			return fmt.Errorf("peer %s acknowledged mismatched group ID", url)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.persistGroup(id, payload); err != nil {
		return nil, err
	}
	if err := s.index.Add(addresses, id); err != nil {
		return nil, wrapError(CodeStorage, err, "update query index")
	}
	logger.Log.Infof("Reconciled legacy privacy group %s", GroupKey(id))
	return id, nil
}

func (s *Service) loadGroup(id []byte) (*model.PrivacyGroupPayload, error) {
	value, err := s.store.Get(GroupKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newError(CodePrivacyGroupMissing, "privacy group %s not found", GroupKey(id))
	}
	if err != nil {
		return nil, wrapError(CodeStorage, err, "load group %s", GroupKey(id))
	}
	group := &model.PrivacyGroupPayload{}
	if err := model.Unmarshal(value, group); err != nil {
		return nil, wrapError(CodeStorage, err, "decode group %s", GroupKey(id))
	}
	return group, nil
}

func (s *Service) persistGroup(id []byte, payload *model.PrivacyGroupPayload) error {
	value, err := model.Marshal(payload)
	if err != nil {
		return wrapError(CodeStorage, err, "encode group %s", GroupKey(id))
	}
	if err := s.store.Update(GroupKey(id), value); err != nil {
		return wrapError(CodeStorage, err, "persist group %s", GroupKey(id))
	}
	return nil
}

// checkAddresses validates every member key decodes and returns the set with
// duplicates removed, original order preserved.
func (s *Service) checkAddresses(addresses []string) ([]string, error) {
	for _, a := range addresses {
		if _, err := s.enclave.ReadKey(a); err != nil {
			return nil, wrapError(CodeKeyDecode, err, "malformed member key %q", a)
		}
	}
	return distinct(addresses), nil
}

// resolveTargets maps member addresses to the de-duplicated peer URLs a
// mutation must reach, skipping identities hosted by this node and any
// explicitly excluded addresses.
func (s *Service) resolveTargets(addresses []string, exclude ...string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}

	var urls []string
	seen := make(map[string]bool)
	for _, addr := range addresses {
		if skip[addr] {
			continue
		}
		key, err := s.enclave.ReadKey(addr)
		if err != nil {
			return nil, wrapError(CodeKeyDecode, err, "malformed member key %q", addr)
		}
		if s.enclave.Keys().Holds(key) {
			continue
		}
		url, err := s.peers.Resolve(addr)
		if err != nil {
			return nil, wrapError(CodePropagatingToAllPeers, err, "resolve member node")
		}
		if url == s.selfURL || seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
	}
	return urls, nil
}

func summary(id []byte, payload *model.PrivacyGroupPayload) *model.PrivacyGroup {
	return &model.PrivacyGroup{
		PrivacyGroupID: append([]byte(nil), id...),
		Type:           payload.Type,
		Name:           payload.Name,
		Description:    payload.Description,
		Members:        append([]string(nil), payload.Addresses...),
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func distinct(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
