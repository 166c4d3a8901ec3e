// seed-admin creates the first login for the roastery books, or resets its password.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-admin -username owner -name "Owner" -password '...'
//
// With -reset the password of an existing user is replaced instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
)

func main() {
	username := flag.String("username", "admin", "login name")
	name := flag.String("name", "Roastery Admin", "display name")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password (min 8 chars); defaults to $ADMIN_PASSWORD")
	reset := flag.Bool("reset", false, "reset the password of an existing user")
	flag.Parse()

	if strings.TrimSpace(*password) == "" {
		fmt.Fprintln(os.Stderr, "-password or ADMIN_PASSWORD is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	if *reset {
		// the login cache is dropped too, so redis must be reachable
		config.ConnectRedisWithRetry()
		if err := models.ResetPassword(ctx, db, *username, *password); err != nil {
			fmt.Fprintf(os.Stderr, "failed to reset password: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("password reset for %s\n", *username)
		return
	}

	user, err := models.CreateUser(ctx, db, &models.NewUser{
		Username: *username,
		Name:     *name,
		Password: *password,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			fmt.Fprintf(os.Stderr, "%s already exists; rerun with -reset to change its password\n", *username)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
}
