// Test program for catalog loading
//
// Usage:
//
//	go run ./cmd/test/catalog_dump/main.go <data-dir>
//
// This program loads books.json from data-dir the way the library does
// (normalizing categories, collapsing duplicate paths, accepting the legacy
// list shape) and prints what it sees, including the computed views and
// books whose file is missing. The catalog file is not rewritten.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/yuanying/pdflib/internal/catalog"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/catalog_dump/main.go <data-dir>")
		os.Exit(1)
	}

	store, err := catalog.New(catalog.Options{Dir: os.Args[1]})
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	if err := store.Load(); err != nil {
		log.Fatalf("Failed to load %s: %v", store.Path(), err)
	}
	fmt.Printf("Catalog: %s\n", store.Path())
	fmt.Printf("Covers:  %s\n\n", store.CoverDir())

	fmt.Println("Categories:")
	for _, name := range store.Categories() {
		fmt.Printf("  - %s (%d)\n", name, len(store.Books(name)))
	}

	views := []string{catalog.CategoryAll, catalog.CategoryRecent, catalog.CategoryFavorites}
	for _, view := range views {
		fmt.Printf("\n%s:\n", view)
		for _, b := range store.Books(view) {
			lastRead := "never"
			if b.LastRead != nil {
				lastRead = b.LastRead.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("  %s  page %d/%d  [%s]  read %s\n", b.Title, b.LastPage+1, b.TotalPages, b.Category, lastRead)
		}
	}

	fmt.Println("\nMissing files:")
	missing := 0
	for _, b := range store.Books(catalog.CategoryAll) {
		if _, err := os.Stat(b.Path); err != nil {
			fmt.Printf("  ✗ %s\n", b.Path)
			missing++
		}
		if b.Cover != "" {
			if _, err := os.Stat(b.Cover); err != nil {
				fmt.Printf("  ✗ cover %s\n", b.Cover)
			}
		}
	}
	if missing == 0 {
		fmt.Println("  none")
	}
}
