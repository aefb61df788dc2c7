package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/utils"
)

// listFlags are shared by every list command
type listFlags struct {
	search   string
	filters  []string
	where    string
	sort     string
	desc     bool
	page     int
	pageSize int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive text search")
	cmd.Flags().StringArrayVarP(&f.filters, "filter", "f", nil, "field=value filter, repeatable (value 'all' matches everything)")
	cmd.Flags().StringVar(&f.where, "where", "", `boolean expression over fields, e.g. 'severity == "critical" && status != "resolved"'`)
	cmd.Flags().StringVar(&f.sort, "sort", "", "field to sort by")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", utils.DefaultPageSize, "items per page")
}

func (f *listFlags) query() (collection.Query, error) {
	q := collection.Query{
		Search: f.search,
		Where:  f.where,
		SortBy: f.sort,
		Desc:   f.desc,
	}
	if len(f.filters) > 0 {
		q.Filters = make(map[string]string, len(f.filters))
		for _, kv := range f.filters {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				return q, fmt.Errorf("invalid filter %q, expected field=value", kv)
			}
			q.Filters[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return q, nil
}

// listView loads a collection, derives the view selected by f and prints one page
func listView[T collection.Entity](ctx context.Context, loader *collection.Loader[T], f *listFlags, headers []string, row func(T) []string) error {
	q, err := f.query()
	if err != nil {
		return err
	}
	if err := loader.Load(ctx); err != nil {
		return err
	}
	items, err := loader.View(q)
	if err != nil {
		return err
	}
	page := utils.Paginate(items, utils.NewPaginationParams(f.page, f.pageSize))

	if getOutputFormat() != "table" {
		return printOutput(page)
	}

	t := NewTable(headers...)
	for _, it := range page.Items {
		t.AddRow(row(it)...)
	}
	t.Render()
	if page.TotalPages > 1 {
		fmt.Printf("\nPage %d of %d (%d %s)\n", page.Page, page.TotalPages, page.TotalItems, loader.Name())
	}
	return nil
}

// printOne prints a single entity, as key/value lines in table mode
func printOne(data interface{}, lines ...[2]string) error {
	if getOutputFormat() != "table" {
		return printOutput(data)
	}
	width := 0
	for _, l := range lines {
		if len(l[0]) > width {
			width = len(l[0])
		}
	}
	for _, l := range lines {
		fmt.Printf("%-*s  %s\n", width+1, l[0]+":", l[1])
	}
	return nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, arg)
	}
	return id, nil
}

// changed returns a pointer to the flag value when the flag was set
func changed[V any](cmd *cobra.Command, name string, v V) *V {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
