// Package main provides the wikibox command line interface.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/skohara/wikibox/internal/config"
	"github.com/skohara/wikibox/internal/infobox"
	"github.com/skohara/wikibox/internal/tablegrid"
	"github.com/skohara/wikibox/internal/wikiapi"
)

const usage = `usage: wikibox [flags] <command> [args]

commands:
  search <keyword>   full-text page search, paginated
  source <title>     print the wikitext source of a page
  infobox <title>    print the infobox templates of a page
  anime <title>      print anime metadata extracted from a page
  tables <url>       print the HTML tables of a URL as TSV

flags:
`

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	language := flag.String("language", "", "Wikipedia language edition (overrides config)")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if *language != "" {
		cfg.Language = *language
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client := wikiapi.NewClient(wikiapi.Config{
		BaseURL:   cfg.APIBaseURL(),
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})

	ctx := context.Background()
	switch args[0] {
	case "search":
		err = runSearch(ctx, client, cfg, args[1:])
	case "source":
		err = runSource(ctx, client, args[1:])
	case "infobox":
		err = runInfobox(ctx, client, logger, args[1:])
	case "anime":
		err = runAnime(ctx, client, args[1:])
	case "tables":
		err = runTables(ctx, cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// runSearch prints hits one batch at a time, prompting before each next batch.
func runSearch(ctx context.Context, client *wikiapi.Client, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", cfg.SearchLimit, "Results per batch")
	all := fs.Bool("all", false, "Print every result without prompting")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("search needs exactly one keyword")
	}

	cursor, total, err := client.Search(ctx, fs.Arg(0), *limit)
	if err != nil {
		return err
	}
	fmt.Printf("%d hits\n", total)

	stdin := bufio.NewReader(os.Stdin)
	shown := 0
	for {
		hit, ok, err := cursor.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Printf("%d\t%s\n", hit.PageID, hit.Title)
		shown++

		if !*all && shown%*limit == 0 {
			fmt.Fprint(os.Stderr, "-- more (enter to continue, q to quit) -- ")
			line, err := stdin.ReadString('\n')
			if err != nil || strings.TrimSpace(line) == "q" {
				return nil
			}
		}
	}
}

func runSource(ctx context.Context, client *wikiapi.Client, args []string) error {
	fs := flag.NewFlagSet("source", flag.ExitOnError)
	unlink := fs.Bool("unlink", false, "Replace internal links with their display text")
	noRedirects := fs.Bool("no-redirects", false, "Do not follow page redirects")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("source needs exactly one title")
	}

	page, err := client.FindPage(ctx, fs.Arg(0), !*noRedirects)
	if err != nil {
		return err
	}
	if *unlink {
		page.Unlink()
	}
	fmt.Println(page.Source)
	return nil
}

func runInfobox(ctx context.Context, client *wikiapi.Client, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("infobox", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("infobox needs exactly one title")
	}

	page, err := client.FindPage(ctx, fs.Arg(0), true)
	if err != nil {
		return err
	}

	resolver := infobox.New(infobox.Config{Source: client, Logger: logger})
	boxes, err := resolver.InfoboxesIn(ctx, page.Source)
	if err != nil {
		return err
	}

	for _, box := range boxes {
		fmt.Println(box.Name())
		for _, item := range box.Items() {
			fmt.Printf("  %s = %s\n", item.Key, item.Value)
		}
	}
	return nil
}

func runAnime(ctx context.Context, client *wikiapi.Client, args []string) error {
	fs := flag.NewFlagSet("anime", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print as JSON")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("anime needs exactly one title")
	}

	page, err := client.FindPage(ctx, fs.Arg(0), true)
	if err != nil {
		return err
	}
	page.Unlink()

	works, err := infobox.ExtractAnime(page.Source)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(works)
	}
	for _, work := range works {
		fmt.Printf("%s\t%s\t%s\t%s\n", work.Title, work.Type, work.Director, work.Studio)
	}
	return nil
}

func runTables(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("tables needs exactly one URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fs.Arg(0), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	httpClient := &http.Client{Timeout: cfg.Timeout()}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch %s: status %d", fs.Arg(0), resp.StatusCode)
	}

	tables, err := tablegrid.ParseTables(resp.Body)
	if err != nil {
		return err
	}
	for i, table := range tables {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(table.String())
	}
	return nil
}
