package relay

import (
	"context"

	"privacy-node/internal/logger"
	"privacy-node/internal/model"
	"privacy-node/internal/session"
)

// Pusher is the node-to-node transport the workflows fan out over.
type Pusher interface {
	PushPayload(ctx context.Context, url, key string, payload *model.EncryptedPayload) (string, error)
	PushPrivacyGroup(ctx context.Context, url string, payload *model.PrivacyGroupPayload) ([]byte, error)
	SetPrivacyGroup(ctx context.Context, url string, id []byte, payload *model.PrivacyGroupPayload) error
	DeletePrivacyGroup(ctx context.Context, url string, id []byte, payload *model.PrivacyGroupPayload) error
}

// fanOut pushes to every target concurrently and joins on all acks. The
// first failure fails the whole propagation; pushes already in flight are not
// recalled, and peers that accepted are not rolled back.
func (s *Service) fanOut(ctx context.Context, groupID []byte, targets []string, push func(ctx context.Context, url string) error) error {
	if len(targets) == 0 {
		return nil
	}

	state := s.sessions.Begin(groupID, targets)
	ackCh := make(chan string, len(targets))
	errCh := make(chan error, len(targets))

	for _, url := range targets {
		go func(url string) {
			if err := push(ctx, url); err != nil {
				errCh <- wrapError(CodePushingToPeer, err, "push to %s failed", url)
				return
			}
			ackCh <- url
		}(url)
	}

	for acked := 0; acked < len(targets); {
		select {
		case url := <-ackCh:
			acked++
			all := s.sessions.RecordAcknowledgement(state.SessionID, url)
			logger.Log.Debugf("Session %s: ack from %s (%d/%d, all=%t)", state.SessionID, url, acked, len(targets), all)
		case err := <-errCh:
			s.sessions.UpdateStatus(state.SessionID, session.StatusFailed)
			logger.Log.Errorf("Session %s: propagation failed: %v", state.SessionID, err)
			return wrapError(CodePropagatingToAllPeers, err, "propagation to %d peers failed", len(targets))
		case <-ctx.Done():
			s.sessions.UpdateStatus(state.SessionID, session.StatusFailed)
			return wrapError(CodePropagatingToAllPeers, ctx.Err(), "propagation cancelled")
		}
	}

	s.sessions.UpdateStatus(state.SessionID, session.StatusFinished)
	return nil
}
