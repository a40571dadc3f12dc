package database

import (
	"context"
	"database/sql"
)

// Table definitions applied at startup. CREATE TABLE IF NOT EXISTS
// keeps this idempotent; production deployments can move to a real
// migration tool without touching the repositories.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(100) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		email VARCHAR(100) NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'farmer',
		state VARCHAR(50) NOT NULL DEFAULT '',
		district VARCHAR(50) NOT NULL DEFAULT '',
		location VARCHAR(100) NOT NULL DEFAULT '',
		language VARCHAR(50) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_phone (phone),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		token VARCHAR(255) NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		kind VARCHAR(20) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_tokens_token (token),
		KEY idx_tokens_user (user_id),
		CONSTRAINT fk_tokens_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS crop_predictions (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		crop_type VARCHAR(100) NOT NULL DEFAULT '',
		predicted_class VARCHAR(200) NOT NULL,
		confidence DOUBLE NOT NULL DEFAULT 0,
		probabilities TEXT NULL,
		details TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_crop_predictions_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS irrigation_events (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		event_type VARCHAR(50) NOT NULL,
		details VARCHAR(500) NOT NULL DEFAULT '',
		water_liters DOUBLE NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_irrigation_events_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS irrigation_schedules (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		date VARCHAR(20) NOT NULL,
		time VARCHAR(50) NOT NULL,
		duration VARCHAR(50) NOT NULL DEFAULT '',
		is_enabled TINYINT(1) NOT NULL DEFAULT 1,
		water_liters DOUBLE NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_irrigation_schedules_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS water_usage (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		date VARCHAR(20) NOT NULL,
		liters DOUBLE NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_water_usage_user_date (user_id, date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS assistant_queries (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		query_type VARCHAR(20) NOT NULL,
		user_input TEXT NOT NULL,
		assistant_response TEXT NOT NULL,
		language VARCHAR(10) NOT NULL DEFAULT 'en',
		audio_url VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_assistant_queries_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates all application tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
