package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the six entity tables in dependency order.
// MySQL executes one statement per Exec call, hence the slice instead
// of a single script. Money columns are DECIMAL(10,2); updated_at is
// bumped explicitly by the repositories, not by an ON UPDATE clause.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS directors (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		nationality VARCHAR(100) NOT NULL,
		birth_date DATE NOT NULL,
		biography TEXT NULL,
		website VARCHAR(255) NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		capacity INT UNSIGNED NOT NULL,
		screen_type VARCHAR(50) NOT NULL,
		audio_system VARCHAR(50) NOT NULL,
		accessible TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS movies (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		genre VARCHAR(100) NOT NULL,
		duration_minutes INT UNSIGNED NOT NULL,
		release_date DATE NOT NULL,
		rating DOUBLE NOT NULL DEFAULT 0,
		synopsis TEXT NULL,
		director_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_movies_director (director_id),
		CONSTRAINT fk_movies_director FOREIGN KEY (director_id) REFERENCES directors (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id BIGINT UNSIGNED NOT NULL,
		room_id BIGINT UNSIGNED NOT NULL,
		start_time DATETIME NOT NULL,
		exhibition_type VARCHAR(20) NOT NULL,
		audio_language VARCHAR(50) NOT NULL,
		subtitle_language VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
		base_price DECIMAL(10,2) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_sessions_movie (movie_id),
		KEY idx_sessions_room (room_id),
		KEY idx_sessions_start (start_time),
		CONSTRAINT fk_sessions_movie FOREIGN KEY (movie_id) REFERENCES movies (id),
		CONSTRAINT fk_sessions_room FOREIGN KEY (room_id) REFERENCES rooms (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		session_id BIGINT UNSIGNED NOT NULL,
		seat_code VARCHAR(10) NOT NULL,
		ticket_type VARCHAR(20) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		purchase_time DATETIME NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_tickets_session (session_id),
		UNIQUE KEY uniq_tickets_seat (session_id, seat_code),
		CONSTRAINT fk_tickets_session FOREIGN KEY (session_id) REFERENCES sessions (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		ticket_id BIGINT UNSIGNED NOT NULL,
		transaction_id VARCHAR(64) NOT NULL,
		amount DECIMAL(10,2) NOT NULL,
		method VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		paid_at DATETIME NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_payments_ticket (ticket_id),
		UNIQUE KEY uniq_payments_txn (transaction_id),
		CONSTRAINT fk_payments_ticket FOREIGN KEY (ticket_id) REFERENCES tickets (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables. It is safe to run on every
// startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
