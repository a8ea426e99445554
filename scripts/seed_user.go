package main

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/devconnector/adapters/persistence"
	"github.com/khoahotran/devconnector/internal/config"
	"github.com/khoahotran/devconnector/internal/domain/post"
	"github.com/khoahotran/devconnector/internal/domain/user"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
)

// Registration lives in another service. This seeds one account, plus an
// optional post, so the profile API can be exercised locally.
func main() {
	fmt.Println("adding user into database...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_EMAIL")))
	password := os.Getenv("SEED_PASSWORD")
	name := os.Getenv("SEED_NAME")
	if email == "" || password == "" {
		log.Fatal("SEED_EMAIL and SEED_PASSWORD are required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Avatar:       gravatarURL(email),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	var p *post.Post
	if text := os.Getenv("SEED_POST"); text != "" {
		p = &post.Post{ID: uuid.New(), UserID: u.ID, Text: text, Name: u.Name, Avatar: u.Avatar, CreatedAt: u.CreatedAt}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nop := logger.NewNopLogger()
	switch cfg.DB.Driver {
	case config.DriverMongo:
		db, err := persistence.NewMongoDatabase(ctx, cfg, nop)
		if err != nil {
			log.Fatalf("cannot connect DB: %v", err)
		}
		defer db.Client().Disconnect(context.Background())

		if err := persistence.InsertMongoUser(ctx, db, u); err != nil {
			log.Fatalf("cannot add user: %v", err)
		}
		if p != nil {
			if err := persistence.InsertMongoPost(ctx, db, p); err != nil {
				log.Fatalf("cannot add post: %v", err)
			}
		}
	default:
		pool, err := persistence.NewPostgresPool(ctx, cfg, nop)
		if err != nil {
			log.Fatalf("cannot connect DB: %v", err)
		}
		defer pool.Close()

		if err := persistence.CreateUser(ctx, pool, u); err != nil {
			log.Fatalf("cannot add user: %v", err)
		}
		if p != nil {
			if err := persistence.CreatePost(ctx, pool, p); err != nil {
				log.Fatalf("cannot add post: %v", err)
			}
		}
	}

	fmt.Printf("added user '%s' (%s) successfully!\n", email, u.ID)
}

// gravatarURL mirrors the avatar the registration service assigns.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(email))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
