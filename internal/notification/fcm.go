package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"yumyumCoachAPI/internal/types/challenge"
)

type FCMService struct {
	client *messaging.Client
}

// NewFCMService initializes FCMService. Base64 encoded credentials win over
// the local service account key file.
func NewFCMService(ctx context.Context, encodedCreds, localFilePath string) (*FCMService, error) {
	var opt option.ClientOption

	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("FCM Service: Initializing from FCM_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FCM_SERVICE_ACCOUNT_JSON environment variable is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("FCM Service: Initializing from local file: %s.", localFilePath)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return &FCMService{client: client}, nil
}

var topicUnsafe = regexp.MustCompile(`[^a-zA-Z0-9\-_.~%]`)

// UserTopic is the per-user topic the app subscribes to after sign-in.
func UserTopic(userID string) string {
	return "user_" + topicUnsafe.ReplaceAllString(userID, "_")
}

// CompletionMessage builds the push sent when a challenge is completed.
func CompletionMessage(userID string, c *challenge.Challenge) *messaging.Message {
	return &messaging.Message{
		Topic: UserTopic(userID),
		Notification: &messaging.Notification{
			Title: "Challenge complete!",
			Body:  fmt.Sprintf("You reached your goal for %s.", c.Name),
		},
		Data: map[string]string{
			"type":        "challenge_completed",
			"challengeId": strconv.FormatInt(c.ID, 10),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
	}
}

func (s *FCMService) NotifyChallengeCompleted(ctx context.Context, userID string, c *challenge.Challenge) error {
	id, err := s.client.Send(ctx, CompletionMessage(userID, c))
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	log.Printf("FCM: sent completion for challenge %d to %s (%s)", c.ID, UserTopic(userID), id)
	return nil
}
