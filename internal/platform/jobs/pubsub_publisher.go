package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/cre-mailflow/api/internal/services"
)

// PubSubCampaignPublisher announces saved campaign drafts on a Pub/Sub topic.
type PubSubCampaignPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubCampaignPublisher constructs a Pub/Sub backed draft event publisher.
func NewPubSubCampaignPublisher(topic *pubsub.Topic) (*PubSubCampaignPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub campaign publisher: topic is required")
	}
	return &PubSubCampaignPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishDraftSaved sends the event and waits for the server-assigned message ID.
func (p *PubSubCampaignPublisher) PublishDraftSaved(ctx context.Context, event services.CampaignDraftEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub campaign publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal campaign draft event: %w", err)
	}

	attrs := map[string]string{"event": services.CampaignDraftSavedEvent}
	setAttr(attrs, "draftId", event.DraftID)
	setAttr(attrs, "mailerFormat", event.MailerFormat)
	setAttr(attrs, "state", event.State)
	if event.Quantity != nil {
		attrs["quantity"] = strconv.Itoa(*event.Quantity)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish campaign draft event: %w", err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
