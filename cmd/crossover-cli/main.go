package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"crossover/internal/config"
	"crossover/internal/domain"
	"crossover/internal/store"
	"crossover/internal/strategy/builtins"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: crossover-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  rules      List the registered signal rules\n")
		fmt.Fprintf(os.Stderr, "  symbols    List symbols with cached bars [-store parquet|sqlite] [-market us|cn]\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("crossover-cli %s\n", version)

	case "rules":
		for _, name := range builtins.NewRegistry().List() {
			mark := " "
			if name == builtins.DefaultRule {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, name)
		}

	case "symbols":
		if err := listSymbols(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "symbols: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func listSymbols(args []string) error {
	fs := flag.NewFlagSet("symbols", flag.ExitOnError)
	backend := fs.String("store", "parquet", "bar store to list: parquet or sqlite")
	market := fs.String("market", string(domain.MarketUS), "market to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var s store.BarStore
	switch *backend {
	case "parquet":
		s = store.NewParquetStore(cfg.Storage.DataDir)
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is not configured")
		}
		sq, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		defer sq.Close()
		s = sq
	default:
		return fmt.Errorf("unknown store %q", *backend)
	}

	symbols, err := s.ListSymbols(context.Background(), domain.Market(*market))
	if err != nil {
		return err
	}
	for _, sym := range symbols {
		fmt.Println(sym)
	}
	return nil
}
