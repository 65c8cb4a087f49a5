// Command token mints a bearer token for the HTTP API. It is only useful
// when AUTH_JWT_SECRET is set; with no secret configured the API runs open
// and no token is needed.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Hemanthmaddila/AI-agent/internal/config"
	"github.com/Hemanthmaddila/AI-agent/internal/pkg/jwt"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to AUTH_TOKEN_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		fmt.Fprintln(os.Stderr, "AUTH_JWT_SECRET is not set; the API runs open and needs no token")
		os.Exit(2)
	}

	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	svc := jwt.NewHMACService(cfg.Auth.JWTSecret, lifetime)
	token, err := svc.GenerateToken(strings.TrimSpace(*subject))
	if err != nil {
		log.Fatalf("failed to mint token: %v", err)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
}
