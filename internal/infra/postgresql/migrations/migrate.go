package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Migrate applies the audit schema. It only runs when DATABASE_DSN is set.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createDeliveryAttemptsTable(),
	})

	return m.Migrate()
}
