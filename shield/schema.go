package shield

import "database/sql"

// Schema defines the rate_limits table the RateLimiter reads its rules
// from. One row per "METHOD /path" endpoint key.
const Schema = `
CREATE TABLE IF NOT EXISTS rate_limits (
    endpoint       TEXT PRIMARY KEY,
    max_requests   INTEGER NOT NULL DEFAULT 60,
    window_seconds INTEGER NOT NULL DEFAULT 60,
    enabled        INTEGER NOT NULL DEFAULT 1
);
`

// Init creates the shield table if it does not exist.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
