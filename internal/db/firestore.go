package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"traddy-backend-go/internal/config"
)

// FirebaseClients groups the clients built from one Firebase app.
// Firestore is nil when the relational backend is selected.
type FirebaseClients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore connection if one was opened.
func (c *FirebaseClients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// InitFirebase initializes the Firebase Admin SDK. The Auth client is always
// created; the Firestore client only when withFirestore is set.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger, withFirestore bool) (*FirebaseClients, error) {
	if appConfig == nil {
		return nil, fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}

	var opts []option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			logger.Warn("credentials file does not exist, falling back to ADC",
				zap.String("path", appConfig.GoogleApplicationCredentials))
		} else {
			logger.Info("initializing Firebase with credentials file",
				zap.String("path", appConfig.GoogleApplicationCredentials))
			opts = append(opts, option.WithCredentialsFile(appConfig.GoogleApplicationCredentials))
		}
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode FirebaseServiceAccountJSONBase64: %w", err)
		}
		logger.Info("initializing Firebase with base64 service account JSON")
		opts = append(opts, option.WithCredentialsJSON(decoded))
	default:
		logger.Info("initializing Firebase using Application Default Credentials")
	}

	var fbConfig *firebase.Config
	if appConfig.FirebaseProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: appConfig.FirebaseProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}

	clients := &FirebaseClients{App: app}
	if withFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("app.Firestore: %w", err)
		}
		clients.Firestore = fs
		logger.Info("Firestore client initialized")
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		_ = clients.Close()
		return nil, fmt.Errorf("app.Auth: %w", err)
	}
	clients.Auth = authClient
	logger.Info("Firebase Auth client initialized")

	return clients, nil
}

// NewFirestoreStore wires every Firestore repository on one client.
func NewFirestoreStore(client *firestore.Client) *Store {
	return &Store{
		Profiles:     NewFirestoreProfileRepository(client),
		LeadFiles:    NewFirestoreLeadFileRepository(client),
		Leads:        NewFirestoreLeadRepository(client),
		Transactions: NewFirestoreTransactionRepository(client),
		Packs:        NewFirestorePackRepository(client),
		Activities:   NewFirestoreActivityRepository(client),
	}
}
