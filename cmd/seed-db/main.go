// Command seed-db provisions reference data: the delivery agent pool and,
// optionally, demo users. Seeding is idempotent; agent ids are derived
// deterministically so re-running updates rather than duplicates.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"

	"github.com/freshkart/order-service/internal/domain/agent"
	"github.com/freshkart/order-service/internal/domain/user"
	"github.com/freshkart/order-service/internal/repository"
)

type agentJSON struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type userJSON struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// defaultAgents is the stock delivery pool, seeded when no agents file is
// given.
var defaultAgents = []agentJSON{
	{Name: "Rajesh Kumar", Phone: "9876543210"},
	{Name: "Priya Sharma", Phone: "9876543211"},
	{Name: "Amit Verma", Phone: "9876543212"},
	{Name: "Sneha Reddy", Phone: "9876543213"},
	{Name: "Vikram Singh", Phone: "9876543214"},
	{Name: "Neha Joshi", Phone: "9876543215"},
	{Name: "Arjun Mehta", Phone: "9876543216"},
	{Name: "Kavita Nair", Phone: "9876543217"},
	{Name: "Ravi Patel", Phone: "9876543218"},
	{Name: "Divya Kapoor", Phone: "9876543219"},
}

func main() {
	var (
		databaseURL string
		agentsFile  string
		usersFile   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&agentsFile, "agents-file", "", "path to delivery agents JSON file (.json or .json.gz; default: built-in pool)")
	flag.StringVar(&usersFile, "users-file", "", "path to users JSON file (.json or .json.gz; optional)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, agentsFile, usersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, agentsFile, usersFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedAgents(ctx, repository.NewAgentRepository(pool), agentsFile); err != nil {
		return errors.Wrap(err, "seed delivery agents")
	}

	if usersFile != "" {
		if err := seedUsers(ctx, repository.NewUserRepository(pool), usersFile); err != nil {
			return errors.Wrap(err, "seed users")
		}
	}

	return nil
}

func seedAgents(ctx context.Context, repo *repository.AgentRepository, path string) error {
	agents := defaultAgents
	if path != "" {
		if err := decodeSeedFile(path, &agents); err != nil {
			return err
		}
	}

	slog.Info("upserting delivery agents", slog.Int("count", len(agents)))

	for _, a := range agents {
		// Stable id from the phone number keeps re-seeding idempotent.
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("agent:"+a.Phone)).String()
		if err := repo.Upsert(ctx, agent.Agent{ID: id, Name: a.Name, Phone: a.Phone}); err != nil {
			return errors.Wrapf(err, "upsert agent %s", a.Name)
		}
		slog.Info("upserted agent", slog.String("name", a.Name), slog.String("phone", a.Phone))
	}
	return nil
}

func seedUsers(ctx context.Context, repo *repository.UserRepository, path string) error {
	var users []userJSON
	if err := decodeSeedFile(path, &users); err != nil {
		return err
	}

	slog.Info("upserting users", slog.Int("count", len(users)))

	for _, u := range users {
		id := u.ID
		if id == "" {
			id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:"+u.Email)).String()
		}
		if err := repo.Upsert(ctx, user.User{ID: id, Username: u.Username, Email: u.Email}); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.Email)
		}
		slog.Info("upserted user", slog.String("username", u.Username), slog.String("id", id))
	}
	return nil
}

// decodeSeedFile reads a JSON seed file, transparently decompressing
// .gz files.
func decodeSeedFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "gzip %s", path)
		}
		defer gz.Close()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}
