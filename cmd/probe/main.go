// Command probe checks the configured structural locators against the live
// upstream pages. Run it after the HND or GKD page templates change: every
// source must resolve both cells and yield a parseable timestamp.
//
// Usage:
//
//	go run ./cmd/probe
//	LEVEL_URL=http://localhost:8000/level.html go run ./cmd/probe -v
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/isar-water-etl/internal/adapter/scraper"
	"github.com/couchcryptid/isar-water-etl/internal/config"
	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

// phase tracks pass/fail for one source.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	verbose := flag.Bool("v", false, "log page fetches")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	os.Exit(run(context.Background(), scraper.NewClient(cfg.FetchTimeout, logger), cfg.Sources(), os.Stdout))
}

func run(ctx context.Context, extractor domain.Extractor, sources []domain.Source, out io.Writer) int {
	failed := 0
	for _, src := range sources {
		p := probe(ctx, extractor, src, out)
		if p.passed() {
			fmt.Fprintf(out, "PASS %s\n", p.name)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	if failed > 0 {
		fmt.Fprintf(out, "%d of %d sources failed\n", failed, len(sources))
		return 1
	}
	return 0
}

func probe(ctx context.Context, extractor domain.Extractor, src domain.Source, out io.Writer) *phase {
	p := &phase{name: src.Name}

	reading, err := extractor.Extract(ctx, src)
	switch {
	case errors.Is(err, domain.ErrStructure):
		p.errorf("locator matched nothing, page layout changed? (%v)", err)
	case errors.Is(err, domain.ErrTimestampFormat):
		p.errorf("timestamp cell is not DD.MM.YYYY HH:MM: %v", err)
	case err != nil:
		p.errorf("%s: %v", domain.ErrorKind(err), err)
	}
	if err != nil {
		return p
	}

	value := "null"
	if reading.Value != nil {
		value = domain.FormatValue(*reading.Value)
	}
	fmt.Fprintf(out, "  %s: time=%s value=%s url=%s\n", src.Name, domain.FormatTime(reading.Timestamp), value, src.URL)
	return p
}
