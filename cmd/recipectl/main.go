// Command recipectl is the operator tool for a foodgram database.
//
//	recipectl migrate
//	recipectl import-ingredients -file ingredients.json
//	recipectl import-tags -file tags.json
//	recipectl create-user -email ada@example.com -username ada [-first Ada] [-last Lovelace]
//	recipectl token -user <id> [-ttl 1h]
//
// It reads the same configuration as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/goccy/go-json"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

const usage = `usage: recipectl <command> [flags]

commands:
  migrate              create the schema
  import-ingredients   load ingredients from a JSON array of {name, measurement_unit}
  import-tags          load tags from a JSON array of {name, slug, color}
  create-user          create a user account
  token                issue an API token for a user id
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "recipectl:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "migrate":
		return withDB(cfg, func(*sqlite.DB) error {
			fmt.Fprintf(stdout, "schema ready at %s\n", cfg.Database.Path)
			return nil
		})
	case "import-ingredients":
		return importIngredients(ctx, cfg, logger, rest, stdout, stderr)
	case "import-tags":
		return importTags(ctx, cfg, logger, rest, stdout, stderr)
	case "create-user":
		return createUser(ctx, cfg, logger, rest, stdout, stderr)
	case "token":
		return issueToken(ctx, cfg, rest, stdout, stderr)
	}

	fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
	return errUsage
}

// withDB opens the database, which also applies the schema, and closes it
// after fn.
func withDB(cfg *config.Config, fn func(db *sqlite.DB) error) error {
	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func readJSONFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func importIngredients(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("import-ingredients", stderr)
	file := fs.String("file", "", "JSON file with the ingredients")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errUsage
	}

	var in []service.IngredientInput
	if err := readJSONFile(*file, &in); err != nil {
		return err
	}

	return withDB(cfg, func(db *sqlite.DB) error {
		report, err := service.NewCatalogService(db, logger).ImportIngredients(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "ingredients: %d created, %d skipped\n", report.Created, report.Skipped)
		return nil
	})
}

func importTags(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("import-tags", stderr)
	file := fs.String("file", "", "JSON file with the tags")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errUsage
	}

	var in []service.TagInput
	if err := readJSONFile(*file, &in); err != nil {
		return err
	}

	return withDB(cfg, func(db *sqlite.DB) error {
		report, err := service.NewCatalogService(db, logger).ImportTags(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "tags: %d created, %d skipped\n", report.Created, report.Skipped)
		return nil
	})
}

func createUser(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("create-user", stderr)
	var in service.UserInput
	fs.StringVar(&in.Email, "email", "", "email address (required)")
	fs.StringVar(&in.Username, "username", "", "username (required)")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	if err := parse(fs, args); err != nil {
		return err
	}

	return withDB(cfg, func(db *sqlite.DB) error {
		u, err := service.NewUserService(db, db, logger).Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, u.ID)
		return nil
	})
}

func issueToken(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("token", stderr)
	userID := fs.String("user", "", "user id (required)")
	ttl := fs.Duration("ttl", 0, "token lifetime (default auth.token_ttl)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *userID == "" {
		fs.Usage()
		return errUsage
	}

	return withDB(cfg, func(db *sqlite.DB) error {
		// Refuse to sign tokens for users that do not exist.
		if _, err := db.GetUserByID(ctx, *userID); err != nil {
			return err
		}

		tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		lifetime := cfg.Auth.TokenTTL
		if *ttl > 0 {
			lifetime = *ttl
		}
		token, err := tokens.GenerateWithDuration(*userID, lifetime)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, token)
		return nil
	})
}
