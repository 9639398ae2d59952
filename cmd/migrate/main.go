package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	m, err := migrate.New("file://migrations", databaseURL())
	if err != nil {
		log.Fatalf("failed to initialize migrations: %v", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Printf("failed to close migration resources: %v, %v", srcErr, dbErr)
		}
	}()

	switch os.Args[1] {
	case "up":
		runUp(m)
	case "down":
		runDown(m)
	case "goto":
		runGoto(m, os.Args[2:])
	case "status":
		showStatus(m)
	default:
		printUsage()
		os.Exit(1)
	}
}

func databaseURL() string {
	user := env.GetEnv("DB_USER", "astrafabric")
	host := env.GetEnv("DB_HOST", "db")
	port := env.GetEnv("DB_PORT", "3306")
	name := env.GetEnv("DB_NAME", "astrafabric_db")

	log.Printf("connecting to %s@%s:%s/%s", user, host, port, name)
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		user, env.GetEnv("DB_PASSWORD", "astrafabric"), host, port, name)
}

func runUp(m *migrate.Migrate) {
	switch err := m.Up(); err {
	case nil:
		log.Println("migrations applied")
	case migrate.ErrNoChange:
		log.Println("database already up to date")
	default:
		log.Fatalf("failed to apply migrations: %v", err)
	}
}

func runDown(m *migrate.Migrate) {
	if err := m.Steps(-1); err != nil {
		log.Fatalf("failed to roll back last migration: %v", err)
	}
	log.Println("last migration rolled back")
}

func runGoto(m *migrate.Migrate, args []string) {
	if len(args) < 1 {
		log.Fatal("goto requires a version number")
	}
	version, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		log.Fatalf("invalid version number: %v", err)
	}

	switch err := m.Migrate(uint(version)); err {
	case nil:
		log.Printf("migrated to version %d", version)
	case migrate.ErrNoChange:
		log.Printf("database already at version %d", version)
	default:
		log.Fatalf("failed to migrate to version %d: %v", version, err)
	}
}

func showStatus(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		log.Println("no migrations applied yet")
		return
	}
	if err != nil {
		log.Fatalf("failed to read migration version: %v", err)
	}
	state := ""
	if dirty {
		state = " (dirty)"
	}
	log.Printf("current migration version: %d%s", version, state)
}

func printUsage() {
	fmt.Println("usage: go run cmd/migrate/main.go [command]")
	fmt.Println("commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - print the current migration version")
}
