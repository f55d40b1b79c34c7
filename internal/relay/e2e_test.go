package relay_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-node/api"
	"privacy-node/internal/directory"
	"privacy-node/internal/enclave"
	"privacy-node/internal/index"
	"privacy-node/internal/network"
	"privacy-node/internal/relay"
	"privacy-node/internal/session"
	"privacy-node/internal/storage"
)

// newHTTPCluster wires full nodes behind real propagation servers, so pushes
// travel over the wire codec instead of in-process calls.
func newHTTPCluster(t *testing.T, size int) []*testNode {
	t.Helper()
	gin.SetMode(gin.TestMode)

	peers := directory.New()
	client := network.NewClient()

	nodes := make([]*testNode, size)
	for i := range nodes {
		ring := enclave.NewKeyRing()
		key, err := ring.Generate()
		require.NoError(t, err)
		enc := enclave.New(ring)
		store := storage.NewMemoryStore()

		srv := httptest.NewUnstartedServer(nil)
		url := "http://" + srv.Listener.Addr().String()

		svc := relay.NewService(enc, store, index.New(store), peers, client, session.NewManager(), url)
		srv.Config.Handler = api.SetupPeerRouter(svc)
		srv.Start()
		t.Cleanup(srv.Close)

		peers.Register(key.Encode(), url)
		nodes[i] = &testNode{key: key, enc: enc, store: store, svc: svc, url: url}
	}
	return nodes
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	nodes := newHTTPCluster(t, 3)
	n1, n2, n3 := nodes[0], nodes[1], nodes[2]

	group, err := n1.svc.CreatePrivacyGroup(context.Background(), &relay.CreateRequest{
		Addresses: addresses(n1, n2),
		From:      n1.key.Encode(),
		Name:      "t",
	})
	require.NoError(t, err)

	updated, err := n1.svc.AddToPrivacyGroup(context.Background(), &relay.AddMemberRequest{
		Address:        n3.key.Encode(),
		From:           n1.key.Encode(),
		PrivacyGroupID: group.PrivacyGroupID,
	})
	require.NoError(t, err)
	assert.Equal(t, group.PrivacyGroupID, updated.PrivacyGroupID)

	widened := addresses(n1, n2, n3)
	for _, n := range nodes {
		found, err := n.svc.FindPrivacyGroup(&relay.FindRequest{Addresses: widened})
		require.NoError(t, err)
		require.Len(t, found, 1, "node %s", n.url)
		assert.Equal(t, group.PrivacyGroupID, found[0].PrivacyGroupID)
		assert.Equal(t, "t", found[0].Name)
		assert.Equal(t, widened, found[0].Members)
	}

	_, err = n1.svc.DeletePrivacyGroup(context.Background(), &relay.DeleteRequest{
		PrivacyGroupID: group.PrivacyGroupID,
		From:           n1.key.Encode(),
	})
	require.NoError(t, err)
	for _, n := range nodes {
		found, err := n.svc.FindPrivacyGroup(&relay.FindRequest{Addresses: widened})
		require.NoError(t, err)
		assert.Empty(t, found, "node %s", n.url)
	}
}

func TestSendAndReceiveOverHTTP(t *testing.T) {
	nodes := newHTTPCluster(t, 2)
	n1, n2 := nodes[0], nodes[1]
	plaintext := []byte("wire codec round trip")

	resp, err := n1.svc.Send(context.Background(), &relay.SendRequest{
		Payload: plaintext,
		From:    n1.key.Encode(),
		To:      []string{n2.key.Encode()},
	})
	require.NoError(t, err)

	got, err := n2.svc.Receive(&relay.ReceiveRequest{Key: resp.Key, To: n2.key.Encode()})
	require.NoError(t, err)
	assert.Equal(t, plaintext, got.Payload)

	// the pushed copy is stripped to the recipient's single combined key
	value, err := n2.store.Get(resp.Key)
	require.NoError(t, err)
	full, err := n1.store.Get(resp.Key)
	require.NoError(t, err)
	assert.Less(t, len(value), len(full))
}
