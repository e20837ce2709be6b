package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yuanying/pdflib/internal/catalog"
)

// categoryAliases lets the reserved views be named in ASCII on the command line.
var categoryAliases = map[string]string{
	"all":       catalog.CategoryAll,
	"recent":    catalog.CategoryRecent,
	"favorites": catalog.CategoryFavorites,
	"fav":       catalog.CategoryFavorites,
}

func resolveCategory(name string) string {
	if c, ok := categoryAliases[strings.ToLower(name)]; ok {
		return c
	}
	return name
}

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "List, add or remove categories",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories with their book counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range store.Categories() {
				fmt.Fprintf(w, "%s\t%d\n", name, len(store.Books(name)))
			}
			for _, name := range []string{catalog.CategoryRecent, catalog.CategoryFavorites} {
				fmt.Fprintf(w, "%s\t%d\n", name, len(store.Books(name)))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.AddCategory(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added category %s\n", args[0])
			return nil
		},
	})

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a category and every book in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			name := args[0]
			n := len(store.Books(name))
			yes, _ := cmd.Flags().GetBool("yes")
			prompt := fmt.Sprintf("Delete category %q and its %d book(s)?", name, n)
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
			if err := store.DeleteCategory(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed category %s (%d book(s))\n", name, n)
			return nil
		},
	}
	rm.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(rm)

	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add FILE|DIR...",
		Short: "Add PDF files to the library",
		Long: `Add PDF files to the library. Directories are expanded to the PDF files
they contain. Files already in the library are skipped. Press Ctrl-C to stop
after the current file; books added so far are kept.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			paths, err := expandPDFPaths(args)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt)
			defer stop()

			errOut := cmd.ErrOrStderr()
			progress := func(current, total int, path string) bool {
				if ctx.Err() != nil {
					return false
				}
				fmt.Fprintf(errOut, "[%d/%d] %s\n", current, total, filepath.Base(path))
				return true
			}

			added, err := store.AddBooks(paths, resolveCategory(category), progress)
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d book(s)\n", added, len(paths))
			return err
		},
	}
	cmd.Flags().StringP("category", "c", "", "Category to file the books under (default: all)")
	return cmd
}

// expandPDFPaths turns the arguments into absolute paths, replacing each
// directory with the .pdf files directly inside it.
func expandPDFPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			paths = append(paths, abs)
			continue
		}
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %w", err)
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				found = append(found, filepath.Join(abs, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [CATEGORY]",
		Short: "List the books of a category (default: all)",
		Long: `List the books of a category. Besides stored categories, "recent" shows
the most recently read books and "favorites" the favorite ones.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			category := catalog.CategoryAll
			if len(args) == 1 {
				category = resolveCategory(args[0])
			}
			return printBooks(cmd.OutOrStdout(), store.Books(category))
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY",
		Short: "Find books whose title contains QUERY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return printBooks(cmd.OutOrStdout(), store.Search(args[0]))
		},
	}
}

func printBooks(out io.Writer, books []catalog.Book) error {
	if len(books) == 0 {
		fmt.Fprintln(out, "No books")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAV\tTITLE\tPAGE\tCATEGORY\tLAST READ\tPATH")
	for _, b := range books {
		fav := ""
		if b.Favorite {
			fav = "*"
		}
		lastRead := "-"
		if b.LastRead != nil {
			lastRead = b.LastRead.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
			fav, b.Title, b.LastPage+1, b.TotalPages, b.Category, lastRead, b.Path)
	}
	return w.Flush()
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move PATH CATEGORY",
		Short: "Move a book to another category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			path := absPath(args[0])
			category := resolveCategory(args[1])
			if err := store.MoveBook(path, category); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", filepath.Base(path), category)
			return nil
		},
	}
}

func newFavCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fav PATH",
		Short: "Toggle the favorite mark of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			path := absPath(args[0])
			fav, err := store.ToggleFavorite(path)
			if err != nil {
				return err
			}
			state := "removed from"
			if fav {
				state = "added to"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorites\n", filepath.Base(path), state)
			return nil
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm PATH | rm --index N",
		Short: "Remove a book from the library",
		Long: `Remove a book and its cover from the library. The PDF file itself is not
touched. --index selects the book by its 1-based position in "pdflib list".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, _ := cmd.Flags().GetInt("index")
			if (index > 0) == (len(args) == 1) {
				return errors.New("give either PATH or --index")
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if index > 0 {
				if err := store.DeleteBookAt(index - 1); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed book #%d\n", index)
				return nil
			}
			path := absPath(args[0])
			if err := store.DeleteBook(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", filepath.Base(path))
			return nil
		},
	}
	cmd.Flags().Int("index", 0, "1-based position of the book in the full list")
	return cmd
}

func newRelinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "relink OLD NEW",
		Short: "Point a book at the new location of its file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			newPath := absPath(args[1])
			if _, err := os.Stat(newPath); err != nil {
				return fmt.Errorf("new location is not readable: %w", err)
			}
			if err := store.UpdateBookPath(absPath(args[0]), newPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relinked to %s\n", newPath)
			return nil
		},
	}
}

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress PATH PAGE",
		Short: "Record the page (1-based) you stopped reading at",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[1])
			if err != nil || page < 1 {
				return fmt.Errorf("invalid page %q: must be a positive number", args[1])
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			path := absPath(args[0])
			if err := store.UpdateLastPage(path, page-1); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: page %d\n", filepath.Base(path), page)
			return nil
		},
	}
}

// absPath makes path absolute so it matches how books are keyed. It returns
// path unchanged when that fails.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
