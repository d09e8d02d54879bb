package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/devconnector/config"
	"github.com/oksasatya/devconnector/pkg/helpers"
)

// Seeds a demo developer with a filled-in profile for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@devconnector.local"
	password := "password123"
	name := "Demo Developer"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password, name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, name, helpers.GravatarURL(email)).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)

	_, err = db.Exec(`
		INSERT INTO profiles (owner_id, status, skills, bio, location, github_username, social, experience, education)
		VALUES ($1, 'Full Stack Developer', '{Go,PostgreSQL,React}', 'Demo account for local development.',
			'Remote', 'demo', '{}'::jsonb,
			'[{"id":"seed-exp-1","title":"Developer","company":"Acme","location":"Remote","from":"2020-01-01","to":"","current":true,"description":"Demo entry"}]'::jsonb,
			'[{"id":"seed-edu-1","school":"State University","degree":"BSc","fieldofstudy":"CS","from":"2014-09-01","to":"2018-06-01","current":false,"description":""}]'::jsonb)
		ON CONFLICT (owner_id) DO UPDATE SET updated_at = now()
	`, id)
	if err != nil {
		log.Fatalf("failed to seed profile: %v", err)
	}
	fmt.Println("seeded demo profile")
}
