// Package firebase initialises the Firebase app shared by the ID token
// verifier, the Firestore ledger store and push notifications.
package firebase

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// NewApp creates a Firebase app. An empty credentials path falls back to
// application default credentials.
func NewApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	return firebase.NewApp(ctx, conf, opts...)
}
