package database

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the PostgreSQL pool, pings it and creates the schema.
func ConnectPostgres(ctx context.Context, postgresURI string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("connected to PostgreSQL")

	if err = InitPostgresTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("PostgreSQL tables initialized")

	return db, nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tb_users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(64) NOT NULL UNIQUE,
			mobile VARCHAR(20) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			user_desc VARCHAR(500) NOT NULL DEFAULT '',
			date_joined TIMESTAMP NOT NULL DEFAULT NOW(),
			last_login TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS tb_category (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(100) NOT NULL,
			created TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS tb_article (
			id BIGSERIAL PRIMARY KEY,
			author_id BIGINT NOT NULL REFERENCES tb_users(id) ON DELETE CASCADE,
			category_id BIGINT REFERENCES tb_category(id) ON DELETE SET NULL,
			avatar TEXT NOT NULL DEFAULT '',
			title VARCHAR(100) NOT NULL,
			tags VARCHAR(20) NOT NULL DEFAULT '',
			summary VARCHAR(200) NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			total_views INTEGER NOT NULL DEFAULT 0,
			comments_count INTEGER NOT NULL DEFAULT 0,
			created TIMESTAMP NOT NULL DEFAULT NOW(),
			updated TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS tb_comment (
			id BIGSERIAL PRIMARY KEY,
			content TEXT NOT NULL,
			article_id BIGINT REFERENCES tb_article(id) ON DELETE SET NULL,
			user_id BIGINT REFERENCES tb_users(id) ON DELETE SET NULL,
			created TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// The list view defaults to category 1; seed it on an empty database.
		`INSERT INTO tb_category (title)
			SELECT 'General' WHERE NOT EXISTS (SELECT 1 FROM tb_category)`,

		`CREATE INDEX IF NOT EXISTS idx_article_category_created ON tb_article(category_id, created DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_article_total_views ON tb_article(total_views DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_comment_article_created ON tb_comment(article_id, created DESC)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
