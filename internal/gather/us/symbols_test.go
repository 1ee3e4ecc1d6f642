package us

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCSVSymbols(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.csv")
	content := "symbol,name\nspy,SPDR S&P 500\n QQQ ,Invesco QQQ\n,blank\nIWM\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadCSVSymbols(path)
	if err != nil {
		t.Fatalf("LoadCSVSymbols: %v", err)
	}
	want := []string{"SPY", "QQQ", "IWM"}
	if len(got) != len(want) {
		t.Fatalf("LoadCSVSymbols = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbol[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadCSVSymbolsHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.csv")
	if err := os.WriteFile(path, []byte("symbol\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadCSVSymbols(path)
	if err != nil {
		t.Fatalf("LoadCSVSymbols: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadCSVSymbols = %v, want none", got)
	}
}

func TestUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symbols.csv")
	if err := os.WriteFile(path, []byte("symbol\nqqq\nDIA\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Universe([]string{"spy", "QQQ", "SPY"}, path)
	if err != nil {
		t.Fatalf("Universe: %v", err)
	}
	want := []string{"SPY", "QQQ", "DIA"}
	if len(got) != len(want) {
		t.Fatalf("Universe = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbol[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := Universe(nil, filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("Universe with missing CSV = nil error")
	}
}
