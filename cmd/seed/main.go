package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	csvPath     = flag.String("csv", "", "Path to the source CSV (required)")
	dsn         = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to perform writes")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key. 0 = disabled")
)

// CSV contract
// code,event_name,organiser,location,event_start_date,event_end_date,requires_password,user_password,admin_password
// requires_password is "true"/"false"; empty dates are allowed

type FestivalCSV struct {
	Code             string
	EventName        string
	Organiser        string
	Location         string
	EventStartDate   string
	EventEndDate     string
	RequiresPassword bool
	UserPassword     string
	AdminPassword    string
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *csvPath == "" {
		fatalf("--csv is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	rows, err := loadCSV(*csvPath)
	if err != nil {
		fatalf("CSV error: %v", err)
	}
	if err := validateRows(rows); err != nil {
		fatalf("CSV validation failed: %v", err)
	}

	fmt.Printf("Loaded %d festivals from %s\n", len(rows), *csvPath)

	if *dryRun {
		printPlan(rows)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	var before int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM festival.festivals`).Scan(&before); err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: festivals=%d\n", before)

	inserted, updated, err := upsertAll(ctx, tx, rows)
	if err != nil {
		fatalf("upsert: %v", err)
	}

	var after int64
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM festival.festivals`).Scan(&after); err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  festivals=%d (inserted=%d updated=%d)\n", after, inserted, updated)

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete")
}

func loadCSV(path string) ([]FestivalCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	r := csv.NewReader(br)
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	required := []string{"code", "event_name", "requires_password"}
	for _, k := range required {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	get := func(rec []string, key string) string {
		i, ok := idx[key]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []FestivalCSV
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}

		out = append(out, FestivalCSV{
			Code:             get(rec, "code"),
			EventName:        get(rec, "event_name"),
			Organiser:        get(rec, "organiser"),
			Location:         get(rec, "location"),
			EventStartDate:   get(rec, "event_start_date"),
			EventEndDate:     get(rec, "event_end_date"),
			RequiresPassword: strings.EqualFold(get(rec, "requires_password"), "true"),
			UserPassword:     get(rec, "user_password"),
			AdminPassword:    get(rec, "admin_password"),
		})
	}
	return out, nil
}

func validateRows(rows []FestivalCSV) error {
	seen := map[string]bool{}
	for i, row := range rows {
		if row.Code == "" {
			return fmt.Errorf("row %d: empty code", i+1)
		}
		if row.EventName == "" {
			return fmt.Errorf("row %d (%s): empty event_name", i+1, row.Code)
		}
		if seen[row.Code] {
			return fmt.Errorf("row %d: duplicate code %s", i+1, row.Code)
		}
		seen[row.Code] = true
		if row.RequiresPassword && row.UserPassword == "" {
			return fmt.Errorf("row %d (%s): requires_password without user_password", i+1, row.Code)
		}
	}
	return nil
}

func printPlan(rows []FestivalCSV) {
	for _, row := range rows {
		wall := "open"
		if row.RequiresPassword {
			wall = "password"
		}
		fmt.Printf("  %-10s %-30s [%s]\n", row.Code, row.EventName, wall)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func upsertAll(ctx context.Context, tx *sql.Tx, rows []FestivalCSV) (inserted, updated int64, err error) {
	const q = `
		INSERT INTO festival.festivals
			(id, code, event_name, organiser, location, event_start_date, event_end_date,
			 requires_password, user_password, user_password_updated_at,
			 admin_password, admin_password_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			CASE WHEN $9 <> '' THEN now() END,
			$10,
			CASE WHEN $10 <> '' THEN now() END,
			now(), now())
		ON CONFLICT (code) DO UPDATE SET
			event_name = EXCLUDED.event_name,
			organiser = EXCLUDED.organiser,
			location = EXCLUDED.location,
			event_start_date = EXCLUDED.event_start_date,
			event_end_date = EXCLUDED.event_end_date,
			requires_password = EXCLUDED.requires_password,
			user_password = EXCLUDED.user_password,
			user_password_updated_at = CASE
				WHEN festival.festivals.user_password IS DISTINCT FROM EXCLUDED.user_password THEN now()
				ELSE festival.festivals.user_password_updated_at END,
			admin_password = EXCLUDED.admin_password,
			admin_password_updated_at = CASE
				WHEN festival.festivals.admin_password IS DISTINCT FROM EXCLUDED.admin_password THEN now()
				ELSE festival.festivals.admin_password_updated_at END,
			updated_at = now()
		RETURNING (xmax = 0)`

	for _, row := range rows {
		var wasInsert bool
		err := tx.QueryRowContext(ctx, q,
			uuid.NewString(), row.Code, row.EventName, row.Organiser, row.Location,
			nullable(row.EventStartDate), nullable(row.EventEndDate),
			row.RequiresPassword, row.UserPassword, row.AdminPassword,
		).Scan(&wasInsert)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert %s: %w", row.Code, err)
		}
		if wasInsert {
			inserted++
		} else {
			updated++
		}
	}
	return inserted, updated, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
