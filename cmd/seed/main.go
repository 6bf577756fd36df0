// Command seed fills a database with sample categories and expenses for a
// test account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"expensetracker/internal/auth"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

var sampleCategories = []string{"Food", "Travel", "Entertainment", "Groceries", "Health", "Utilities"}

const (
	defaultUsername = "testuser"
	defaultPassword = "admin"
	sampleExpenses  = 20
	maxAgeDays      = 90
)

// Store is the part of the repository the seeder writes through.
type Store interface {
	EnsureCategory(ctx context.Context, name string) (core.Category, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
}

type options struct {
	username string
	password string
	count    int
	seed     int64
	today    core.Date
}

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentStorage)

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dbPath := fs.String("db", cfg.SQLiteDBPath, "SQLite database path")
	username := fs.String("username", defaultUsername, "account that owns the sample expenses")
	password := fs.String("password", defaultPassword, "password for a newly created account")
	count := fs.Int("count", sampleExpenses, "number of expenses to create")
	seed := fs.Int64("seed", 0, "random seed, 0 picks one")
	_ = fs.Parse(os.Args[1:])

	repo := cli.InitStorage(logger, *dbPath)
	err := run(context.Background(), repo, options{
		username: *username,
		password: *password,
		count:    *count,
		seed:     *seed,
		today:    core.DateOf(time.Now()),
	}, os.Stdout)
	repo.Close()
	if err != nil {
		logger.Error("Seeding failed", log.FieldError, err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, store Store, opts options, out io.Writer) error {
	categories := make([]core.Category, 0, len(sampleCategories))
	for _, name := range sampleCategories {
		c, err := store.EnsureCategory(ctx, name)
		if err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		categories = append(categories, c)
	}
	fmt.Fprintf(out, "Categories ready: %d\n", len(categories))

	user, err := ensureUser(ctx, store, opts.username, opts.password, out)
	if err != nil {
		return err
	}

	faker := gofakeit.New(opts.seed)
	for i := 0; i < opts.count; i++ {
		e, err := randomExpense(faker, user, categories, opts.today)
		if err != nil {
			return err
		}
		if _, err := store.CreateExpense(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
	}

	fmt.Fprintf(out, "Seeded %d sample expenses for %s\n", opts.count, user.Username)
	return nil
}

func ensureUser(ctx context.Context, store Store, username, password string, out io.Writer) (core.User, error) {
	user, err := store.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err = store.CreateUser(ctx, username, hash)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(out, "Created user %s\n", user.Username)
	return user, nil
}

// randomExpense picks a category, an amount between 10 and 200 and a date
// within the last 90 days.
func randomExpense(faker *gofakeit.Faker, user core.User, categories []core.Category, today core.Date) (core.Expense, error) {
	category := categories[faker.Number(0, len(categories)-1)]
	amount, err := core.ParseAmount(strconv.FormatFloat(faker.Price(10, 200), 'f', 2, 64))
	if err != nil {
		return core.Expense{}, fmt.Errorf("sample amount: %w", err)
	}
	return core.Expense{
		UserID:      user.ID,
		CategoryID:  category.ID,
		Amount:      amount,
		Description: "Sample expense in " + category.Name,
		Date:        core.Date{Time: today.AddDate(0, 0, -faker.Number(0, maxAgeDays-1))},
	}, nil
}
