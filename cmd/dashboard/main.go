package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/pbaptista/bookdash/config"
	"github.com/pbaptista/bookdash/dashboard"
)

func main() {
	defaults := config.DefaultConfig()

	inputDefault := defaults.DashboardInput
	if value, ok := config.EnvString("DASHBOARD_INPUT"); ok {
		inputDefault = value
	}
	addrDefault := defaults.DashboardAddr
	if value, ok := config.EnvString("DASHBOARD_ADDR"); ok {
		addrDefault = value
	}

	input := flag.String("input", inputDefault, "Sink CSV produced by the crawler")
	addr := flag.String("addr", addrDefault, "HTTP listen address")
	root := flag.String("root", defaults.CatalogueRoot, "Catalogue root for resolving relative image URLs")
	tableMode := flag.Bool("table", false, "Print a filtered table to the terminal instead of serving")
	minPrice := flag.Float64("min-price", math.NaN(), "Minimum price filter (table mode)")
	maxPrice := flag.Float64("max-price", math.NaN(), "Maximum price filter (table mode)")
	ratings := flag.String("ratings", "", "Comma-separated rating levels 1-5 (table mode)")
	availability := flag.String("availability", "", "Filter: in or out (table mode)")
	titleQuery := flag.String("q", "", "Title substring filter (table mode)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	rootURL, err := url.Parse(*root)
	if err != nil || rootURL.Host == "" {
		fmt.Fprintf(os.Stderr, "invalid catalogue root %q\n", *root)
		os.Exit(1)
	}

	rows, err := dashboard.Load(*input, rootURL)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr,
				"Could not find %s.\nRun the crawler first (cmd/crawler) or point -input at an existing sink CSV.\n",
				*input)
			os.Exit(1)
		}
		slog.Error("loading sink", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("sink loaded", slog.String("input", *input), slog.Int("rows", len(rows)))

	if *tableMode {
		filter, err := buildTableFilter(*minPrice, *maxPrice, *ratings, *availability, *titleQuery)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		dashboard.RenderTable(os.Stdout, dashboard.Apply(rows, filter))
		return
	}

	server, err := dashboard.NewServer(rows, rootURL, logger)
	if err != nil {
		slog.Error("initialising dashboard", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("dashboard listening", slog.String("addr", *addr))
	if err := http.ListenAndServe(*addr, server.Handler()); err != nil {
		slog.Error("dashboard server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func buildTableFilter(minPrice, maxPrice float64, ratings, availability, titleQuery string) (dashboard.Filter, error) {
	f := dashboard.NewFilter()
	f.MinPrice = minPrice
	f.MaxPrice = maxPrice
	f.TitleQuery = titleQuery

	if ratings != "" {
		f.Ratings = make(map[int]bool)
		for _, part := range strings.Split(ratings, ",") {
			value, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || value < 1 || value > 5 {
				return f, fmt.Errorf("invalid rating %q: expect levels 1-5", part)
			}
			f.Ratings[value] = true
		}
	}

	switch availability {
	case "":
	case "in":
		f.Availability = "In stock"
	case "out":
		f.Availability = "Out of stock"
	default:
		return f, fmt.Errorf("invalid availability %q: expect in or out", availability)
	}
	return f, nil
}
