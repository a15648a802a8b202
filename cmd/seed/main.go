package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"streamtube/config"
	"streamtube/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	username := "demouser"
	email := "demo@streamtube.local"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, full_name, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING id
	`, username, email, "Demo User", hash).Scan(&userID)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s username=%s email=%s password=%s\n", userID, username, email, password)

	videos := []struct {
		title, url, thumb string
		duration          int
	}{
		{"Getting Started", "https://videos.streamtube.local/getting-started.mp4", "https://videos.streamtube.local/getting-started.jpg", 312},
		{"Studio Tour", "https://videos.streamtube.local/studio-tour.mp4", "https://videos.streamtube.local/studio-tour.jpg", 845},
		{"Live Q&A Highlights", "https://videos.streamtube.local/qa-highlights.mp4", "", 1204},
	}
	for _, v := range videos {
		var videoID string
		err = db.QueryRow(`
			INSERT INTO videos (owner_id, title, description, url, thumbnail_url, duration_seconds)
			VALUES ($1, $2, '', $3, $4, $5)
			ON CONFLICT DO NOTHING
			RETURNING id
		`, userID, v.title, v.url, v.thumb, v.duration).Scan(&videoID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			log.Fatalf("failed to seed video %q: %v", v.title, err)
		}
		fmt.Printf("seeded video: id=%s title=%q\n", videoID, v.title)
	}
}
