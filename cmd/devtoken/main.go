// cmd/devtoken/main.go: issues a signed token for local testing.
// Uso: JWT_SECRET=... go run ./cmd/devtoken -rol supervisor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cobrofacil/internal/config"
	"cobrofacil/internal/middleware"

	"github.com/google/uuid"
)

func main() {
	rol := flag.String("rol", "cajero", "cajero | supervisor | administrador")
	username := flag.String("user", "demo", "username claim")
	id := flag.String("id", uuid.NewString(), "user_id claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_EXPIRATION_HOURS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *ttl <= 0 {
		*ttl = time.Duration(cfg.JWTExpirationHours) * time.Hour
	}

	tok, err := middleware.IssueToken(cfg.JWTSecret, *id, *username, *rol, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
