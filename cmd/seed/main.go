package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"expensetracker/internal/config"
	"expensetracker/internal/db"
	"expensetracker/internal/logger"
	"expensetracker/internal/model"
	"expensetracker/internal/repository"
)

const fetchTimeout = 30 * time.Second

// SeedExpense is one entry of the seed document, a JSON array of expenses.
type SeedExpense struct {
	Title    string          `json:"title"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	file := fs.String("file", "", "Path to a JSON file with expenses")
	url := fs.String("url", "", "URL serving a JSON array of expenses")
	sqlitePath := fs.String("sqlite", "", "Seed this SQLite file instead of the configured database")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*file == "") == (*url == "") {
		fmt.Fprintln(stdout, "Usage: seed (-file <path> | -url <url>) [-sqlite <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("exactly one of -file or -url is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *sqlitePath != "" {
		cfg.DBDriver = config.DriverSQLite
		cfg.SQLitePath = *sqlitePath
	}

	log, err := logger.New(cfg.LogDevelopment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	var items []SeedExpense
	if *file != "" {
		log.Info("reading expenses", zap.String("file", *file))
		items, err = readFile(*file)
	} else {
		log.Info("fetching expenses", zap.String("url", *url))
		items, err = fetch(ctx, *url)
	}
	if err != nil {
		return err
	}

	expenses, skipped := toModels(items, log)

	gormDB, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB, false, log); err != nil {
		return err
	}

	repo := repository.NewExpenseRepository(gormDB)
	for i := range expenses {
		if err := repo.Create(ctx, &expenses[i]); err != nil {
			return fmt.Errorf("create expense %q: %w", expenses[i].Title, err)
		}
	}

	fmt.Fprintf(stdout, "Seeded %d expenses (%d skipped)\n", len(expenses), skipped)
	return nil
}

func readFile(path string) ([]SeedExpense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func fetch(ctx context.Context, url string) ([]SeedExpense, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch seed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
	}
	return decode(resp.Body)
}

func decode(r io.Reader) ([]SeedExpense, error) {
	var items []SeedExpense
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("parse seed JSON: %w", err)
	}
	return items, nil
}

// toModels drops entries without a title or with an unparseable date.
func toModels(items []SeedExpense, log *zap.Logger) ([]model.Expense, int) {
	expenses := make([]model.Expense, 0, len(items))
	skipped := 0
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			log.Warn("skipping expense without title")
			skipped++
			continue
		}
		date, err := model.ParseDate(item.Date)
		if err != nil {
			log.Warn("skipping expense with invalid date", zap.String("title", item.Title), zap.String("date", item.Date))
			skipped++
			continue
		}
		expenses = append(expenses, model.Expense{
			Title:    item.Title,
			Category: item.Category,
			Amount:   item.Amount,
			Date:     date,
		})
	}
	return expenses, skipped
}
