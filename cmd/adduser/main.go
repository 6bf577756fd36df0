// Command adduser creates an account from the terminal.
//
//	adduser -username jane
//	adduser -list
//
// The password is read without echo, or from stdin when stdin is not a
// terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"expensetracker/internal/auth"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// UserStore creates and lists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
}

// passwordReader returns one password line without its newline.
type passwordReader func(prompt string) (string, error)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentAuth)

	fs := flag.NewFlagSet("adduser", flag.ExitOnError)
	username := fs.String("username", "", "account name")
	dbPath := fs.String("db", cfg.SQLiteDBPath, "SQLite database path")
	list := fs.Bool("list", false, "print existing accounts and exit")
	_ = fs.Parse(os.Args[1:])

	repo := cli.InitStorage(logger, *dbPath)
	var err error
	if *list {
		err = listUsers(context.Background(), repo, os.Stdout)
	} else {
		err = run(context.Background(), repo, *username, terminalPasswordReader(os.Stdin, os.Stderr), os.Stdout)
	}
	repo.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "adduser:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, store UserStore, username string, readPassword passwordReader, out io.Writer) error {
	username = strings.TrimSpace(username)
	if err := core.ValidateUsername(username); err != nil {
		return err
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirm, err := readPassword("Password (again): ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	switch {
	case password == "":
		return errors.New("password is required")
	case password != confirm:
		return errors.New("passwords do not match")
	case len(password) > auth.MaxPasswordBytes:
		return fmt.Errorf("password must be at most %d bytes", auth.MaxPasswordBytes)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user, err := store.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return fmt.Errorf("username %q already exists", username)
		}
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(out, "Created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func listUsers(ctx context.Context, store UserStore, out io.Writer) error {
	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(out, "No users")
		return nil
	}
	for _, u := range users {
		fmt.Fprintf(out, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(time.DateOnly))
	}
	return nil
}

func terminalPasswordReader(in *os.File, prompts io.Writer) passwordReader {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return func(prompt string) (string, error) {
			fmt.Fprint(prompts, prompt)
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(prompts)
			return string(b), err
		}
	}
	return lineReader(in)
}

func lineReader(in io.Reader) passwordReader {
	sc := bufio.NewScanner(in)
	return func(string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimRight(sc.Text(), "\r"), nil
	}
}
