package db

import (
	"errors"
	"fmt"

	"traddy-backend-go/internal/config"
)

// OpenStore opens the backend selected by DATA_BACKEND. fb is only consulted
// for Firestore and must carry a Firestore client then. The returned closer
// releases the SQL connection; Firestore is closed through fb.
func OpenStore(cfg *config.Config, fb *FirebaseClients) (*Store, func() error, error) {
	switch cfg.DataBackend {
	case config.BackendFirestore:
		if fb == nil || fb.Firestore == nil {
			return nil, nil, errors.New("firestore backend selected but no Firestore client is initialized")
		}
		return NewFirestoreStore(fb.Firestore), func() error { return nil }, nil
	case config.BackendPostgres:
		gdb, err := OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		return NewSQLStore(gdb), sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
