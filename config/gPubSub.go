package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// ChangeMessage is the replication payload published for every committed change set row.
type ChangeMessage struct {
	RecordId      int             `json:"record_id"`
	Table         string          `json:"table"`
	RowId         string          `json:"row_id"`
	Action        string          `json:"action"`
	Row           json.RawMessage `json:"row,omitempty"`
	CorrelationId string          `json:"correlation_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	if pubsubClient != nil {
		c := pubsubClient
		pubsubClientMu.Unlock()
		return c, nil
	}
	pubsubClientMu.Unlock()

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var attempt int
	for {
		attempt++

		var (
			c   *pubsub.Client
			err error
		)
		if credJSON != "" {
			c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			c, err = pubsub.NewClient(ctx, projectID)
		}
		if err == nil {
			pubsubClientMu.Lock()
			if pubsubClient == nil {
				pubsubClient = c
			} else {
				// Another goroutine won the race; close ours.
				_ = c.Close()
			}
			c2 := pubsubClient
			pubsubClientMu.Unlock()

			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c2, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// ChangeTopic is the topic replicated change messages are published to.
func ChangeTopic() string {
	return os.Getenv("PUBSUB_TOPIC")
}

// EmailTopic is the topic consumed by the mail relay.
func EmailTopic() string {
	return stringFromEnv("EMAIL_TOPIC", "roastery-email")
}

// PublishJSON publishes obj as JSON to topicName and returns the server-assigned message ID.
func PublishJSON(ctx context.Context, topicName string, obj interface{}) (string, error) {
	if topicName == "" {
		return "", errors.New("topic is required")
	}
	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}
	result := client.Topic(topicName).Publish(ctx, &pubsub.Message{Data: data})
	return result.Get(ctx)
}

// PublishChangeWithResult publishes a replication message to PUBSUB_TOPIC.
func PublishChangeWithResult(ctx context.Context, msg ChangeMessage) (string, error) {
	topic := ChangeTopic()
	if topic == "" {
		return "", errors.New("PUBSUB_TOPIC is required")
	}
	return PublishJSON(ctx, topic, msg)
}
