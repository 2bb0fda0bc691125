package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"traddy-backend-go/internal/models"
)

// OpenPostgres connects to the relational backend and migrates the schema.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn), TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

// Migrate creates or updates every marketplace table.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&models.Profile{},
		&models.LeadFile{},
		&models.Lead{},
		&models.Transaction{},
		&models.LeadPack{},
		&models.Activity{},
	); err != nil {
		return fmt.Errorf("database migrate error: %w", err)
	}
	return nil
}

// NewSQLStore wires every gorm repository on one connection.
func NewSQLStore(gdb *gorm.DB) *Store {
	return &Store{
		Profiles:     &sqlProfileRepository{db: gdb},
		LeadFiles:    &sqlLeadFileRepository{db: gdb},
		Leads:        &sqlLeadRepository{db: gdb},
		Transactions: &sqlTransactionRepository{db: gdb},
		Packs:        &sqlPackRepository{db: gdb},
		Activities:   &sqlActivityRepository{db: gdb},
	}
}
