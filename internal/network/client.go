package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"privacy-node/internal/model"
)

// pushTimeout bounds every node-to-node request. A peer that cannot answer
// within this window counts as a failed acknowledgement.
const pushTimeout = 2 * time.Second

// Client pushes payloads and privacy group records to peer nodes over their
// propagation endpoints.
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: pushTimeout}}
}

// PushPayload sends a (stripped) encrypted payload and returns the key the
// peer acknowledged.
func (c *Client) PushPayload(ctx context.Context, url, key string, payload *model.EncryptedPayload) (string, error) {
	var resp model.PushPayloadResponse
	req := model.PushPayloadRequest{Key: key, Payload: payload}
	if err := c.postJSON(ctx, url+"/push", req, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

// PushPrivacyGroup sends a freshly created group record and returns the group
// ID the peer computed for it.
func (c *Client) PushPrivacyGroup(ctx context.Context, url string, payload *model.PrivacyGroupPayload) ([]byte, error) {
	var resp model.PushPrivacyGroupResponse
	req := model.PushPrivacyGroupRequest{Payload: payload}
	if err := c.postJSON(ctx, url+"/pushPrivacyGroup", req, &resp); err != nil {
		return nil, err
	}
	return resp.PrivacyGroupID, nil
}

// SetPrivacyGroup replaces a group record at the peer under an explicit ID.
func (c *Client) SetPrivacyGroup(ctx context.Context, url string, id []byte, payload *model.PrivacyGroupPayload) error {
	req := model.SetPrivacyGroupRequest{PrivacyGroupID: id, Payload: payload}
	return c.postJSON(ctx, url+"/setPrivacyGroup", req, nil)
}

// DeletePrivacyGroup propagates a tombstoned group record to the peer.
func (c *Client) DeletePrivacyGroup(ctx context.Context, url string, id []byte, payload *model.PrivacyGroupPayload) error {
	req := model.DeletePrivacyGroupPushRequest{PrivacyGroupID: id, Payload: payload}
	return c.postJSON(ctx, url+"/deletePrivacyGroup", req, nil)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("network: encode request for %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("network: build request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("network: push to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("network: push to %s: status %d: %s", url, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("network: decode response from %s: %w", url, err)
	}
	return nil
}
