package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/session"
)

func main() {
	var token string
	if len(os.Args) >= 2 {
		token = os.Args[1]
	} else {
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		if sc.Scan() {
			token = sc.Text()
		}
	}
	token = strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
	if token == "" {
		fmt.Println("Usage: go run cmd/token-inspect/main.go <token>   (or pipe it on stdin)")
		os.Exit(1)
	}

	claims, err := session.Decode(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	role := claims.Role
	if r, err := models.ParseRole(claims.Role); err == nil {
		role = string(r)
	} else if role != "" {
		role += " (unknown)"
	}
	now := time.Now()
	fmt.Printf("subject: %s\n", claims.Subject)
	fmt.Printf("role:    %s\n", role)
	fmt.Printf("expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
	if session.IsExpired(token, now) {
		fmt.Printf("status:  expired %s ago\n", now.Sub(claims.ExpiresAt).Round(time.Second))
		os.Exit(2)
	}
	fmt.Printf("status:  valid for %s\n", claims.ExpiresAt.Sub(now).Round(time.Second))
}
