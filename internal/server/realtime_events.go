package server

import (
	"context"
	"encoding/json"
	"log"

	"feedhub/internal/models"
	"feedhub/internal/observability"
)

// Event action constants prevent typos in event names.
const (
	EventActionCreate  = "create"
	EventActionUpdate  = "update"
	EventActionDelete  = "delete"
	EventStatusUpdated = "status_updated"
)

// feedEvents adapts the server's hub and notifier to the feed service's
// publisher interface. Publishing is fire-and-forget: failures are logged
// and counted but never reach the mutating request.
type feedEvents struct {
	server *Server
}

func (p *feedEvents) PostCreated(ctx context.Context, post *models.Post) {
	p.publish(ctx, EventActionCreate, newPostView(post))
}

func (p *feedEvents) PostUpdated(ctx context.Context, post *models.Post) {
	p.publish(ctx, EventActionUpdate, newPostView(post))
}

func (p *feedEvents) PostDeleted(ctx context.Context, postID uint) {
	p.publish(ctx, EventActionDelete, postID)
}

func (p *feedEvents) publish(ctx context.Context, action string, payload interface{}) {
	event := map[string]interface{}{
		"action": action,
		"post":   payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s feed event: %v", action, err)
		return
	}
	message := string(eventJSON)

	s := p.server
	// With Redis available the event goes through pub/sub and comes back via
	// the hub wiring, so every server instance (this one included) fans it
	// out exactly once. Without Redis, broadcast in-process directly.
	if s.notifier != nil {
		if err := s.notifier.PublishFeedEvent(ctx, message); err != nil {
			log.Printf("failed to publish %s feed event: %v", action, err)
			return
		}
	} else if s.hub != nil {
		s.hub.BroadcastAll(message)
	}

	observability.FeedEventsPublished.WithLabelValues(action).Inc()
}

// publishUserEvent delivers a typed event to a single user's connections.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return
	}
	message := string(eventJSON)

	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
}
