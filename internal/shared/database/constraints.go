package database

import (
	"gorm.io/gorm"
)

// Postgres has no ADD CONSTRAINT IF NOT EXISTS, so each check constraint is
// wrapped in a DO block that swallows the duplicate_object error on reruns.
var constraintStatements = []string{
	// Stay ranges must be half-open and non-empty
	`DO $$ BEGIN
		ALTER TABLE bookings
		ADD CONSTRAINT chk_booking_range
		CHECK (check_out_date > check_in_date);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$;`,

	`DO $$ BEGIN
		ALTER TABLE bookings
		ADD CONSTRAINT chk_booking_quantity
		CHECK (quantity > 0);
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$;`,
}

var indexStatements = []string{
	// The expiry sweep scans ACTIVE holds ordered by expiry
	`CREATE INDEX IF NOT EXISTS idx_reservations_active_expiry
	ON booking_reservations (expires_at)
	WHERE status = 'ACTIVE';`,

	// Overlap queries filter on room and range
	`CREATE INDEX IF NOT EXISTS idx_bookings_room_range
	ON bookings (room_id, check_in_date, check_out_date);`,

	`CREATE INDEX IF NOT EXISTS idx_avail_locks_active
	ON booking_availability_locks (room_id, check_in_date, check_out_date)
	WHERE is_active = true;`,
}

// MigrateConstraints adds database constraints the reservation engine relies
// on for correctness under concurrency. Safe to run on every boot.
func MigrateConstraints(db *gorm.DB) error {
	for _, stmt := range constraintStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
