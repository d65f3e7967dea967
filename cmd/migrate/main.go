package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"lecturequiz/db"
	"lecturequiz/internal/infra"
)

func main() {
	var (
		dryRun  bool
		timeout time.Duration
	)
	flag.BoolVar(&dryRun, "dry-run", false, "print statements without executing them")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall migration timeout")
	flag.Parse()

	stmts := splitStatements(db.Schema)
	if dryRun {
		for _, s := range stmts {
			fmt.Printf("%s;\n\n", s)
		}
		return
	}

	_ = godotenv.Load()
	logger := infra.NewLogger("cli", os.Getenv("LOG_LEVEL")).With().Str("cmd", "migrate").Logger()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	if err := apply(ctx, conn, stmts, logger); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Int("statements", len(stmts)).Msg("schema applied")
}

// apply runs every statement in one transaction.
func apply(ctx context.Context, conn *sql.DB, stmts []string, logger zerolog.Logger) error {
	if len(stmts) == 0 {
		return errors.New("no statements to apply")
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range stmts {
		start := time.Now()
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d (%s): %w", i+1, summary(stmt), err)
		}
		logger.Debug().Int("n", i+1).Str("stmt", summary(stmt)).Dur("took", time.Since(start)).Msg("applied")
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// splitStatements breaks a script on semicolons that end a line.
func splitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			if s := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";"); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func summary(stmt string) string {
	first, _, _ := strings.Cut(stmt, "\n")
	return strings.TrimSpace(strings.TrimSuffix(first, "("))
}
