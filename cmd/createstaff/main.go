// Command createstaff provisions a staff account so operators can log in
// to a fresh deployment. Passwords are hashed with bcrypt before insert.
package main

import (
	"context"
	"flag"
	stdLog "log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookdesk/library-service/pkg/postgres"
)

func main() {
	username := flag.String("username", "", "staff username")
	password := flag.String("password", "", "staff password")
	flag.Parse()

	if *username == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Fatal("load envs from .env ", err)
	}
	var cfg postgres.DB
	if err := envconfig.Process("", &cfg); err != nil {
		stdLog.Fatal("read db config ", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatal("hash password ", err)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DSN())
	if err != nil {
		stdLog.Fatal("connect ", err)
	}
	defer conn.Close(ctx) //nolint:errcheck

	id := uuid.NewString()
	_, err = conn.Exec(ctx,
		`insert into staff_users (id, username, password_hash) values ($1, $2, $3)`,
		id, *username, string(hash))
	if err != nil {
		stdLog.Fatal("insert staff user ", err)
	}
	stdLog.Printf("staff user %q created with id %s", *username, id)
}
