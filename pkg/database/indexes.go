package database

import (
	"fmt"

	"gorm.io/gorm"
)

// postgresIndexes back the hot list and auth queries. MySQL gets the plain
// column indexes declared on the models only.
var postgresIndexes = []string{
	// list endpoint default filters and sorts
	"CREATE INDEX IF NOT EXISTS idx_tours_price_ratings ON tours(price, ratings_average DESC) WHERE secret_tour = false;",
	"CREATE INDEX IF NOT EXISTS idx_tours_stats ON tours(ratings_average) WHERE ratings_average >= 4.5;",

	// reset lookups and the cleanup job
	"CREATE INDEX IF NOT EXISTS idx_users_pending_reset ON users(password_reset_expires) WHERE password_reset_token IS NOT NULL;",
	"CREATE INDEX IF NOT EXISTS idx_users_active_email ON users(email) WHERE active = true;",
}

// CreateIndexes adds the composite and partial indexes GORM tags cannot express.
func CreateIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != DriverPostgres {
		return nil
	}
	for _, stmt := range postgresIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
