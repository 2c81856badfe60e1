package service

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// MessageSender is the subset of the FCM client used for pushes.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMService sends push notifications via Firebase Cloud Messaging.
// A nil *FCMService drops every push.
type FCMService struct {
	client MessageSender
	log    *zap.Logger
}

// NewFCMService builds the push sender from the shared Firebase app.
// It returns nil when app is nil or messaging cannot be initialised.
func NewFCMService(ctx context.Context, app *firebase.App, log *zap.Logger) *FCMService {
	if app == nil {
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn("fcm messaging client unavailable", zap.Error(err))
		return nil
	}
	return NewFCMServiceWithSender(client, log)
}

func NewFCMServiceWithSender(client MessageSender, log *zap.Logger) *FCMService {
	return &FCMService{client: client, log: log.Named("fcm")}
}

// Send sends a push notification to the given FCM token.
func (s *FCMService) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if s == nil || token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		s.log.Warn("fcm send failed", zap.Error(err))
		return err
	}
	return nil
}
