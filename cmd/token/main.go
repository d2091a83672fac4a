// Command token issues a bearer token for the write endpoints, signed with
// the server's JWT secret (JWT_SECRET or the config file).
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/wakana-code/station-navi-app/internal/auth"
	"github.com/wakana-code/station-navi-app/internal/config"
)

func main() {
	subject := flag.String("subject", "", "recorder identity to embed in the token (required)")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := auth.IssueToken(cfg.JWTSecret, *subject, *ttl, time.Now())
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
