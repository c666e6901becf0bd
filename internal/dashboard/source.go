package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ruslano69/stockreport/pkg/dataset"
	"github.com/ruslano69/stockreport/pkg/report"
	"github.com/ruslano69/stockreport/pkg/store"
)

// Sources builds the fetchers behind the views.
type Sources struct {
	Inventory func() dataset.Fetcher[report.InventoryRecord]
	Sales     func(report.DateFilter) dataset.Fetcher[report.SalesRecord]
}

// StoreSources reads the store in-process. Store errors count as server
// failures.
func StoreSources(s store.Store) Sources {
	return Sources{
		Inventory: func() dataset.Fetcher[report.InventoryRecord] {
			return dataset.FetcherFunc[report.InventoryRecord](func(ctx context.Context, _ string) (dataset.Response[report.InventoryRecord], error) {
				rows, err := s.Inventory(ctx)
				return storeResponse(rows, err)
			})
		},
		Sales: func(f report.DateFilter) dataset.Fetcher[report.SalesRecord] {
			return dataset.FetcherFunc[report.SalesRecord](func(ctx context.Context, _ string) (dataset.Response[report.SalesRecord], error) {
				rows, err := s.Sales(ctx, f)
				return storeResponse(rows, err)
			})
		},
	}
}

func storeResponse[R report.Record](rows []R, err error) (dataset.Response[R], error) {
	if err != nil {
		return dataset.Response[R]{}, fmt.Errorf("%w: %v", dataset.ErrServer, err)
	}
	if rows == nil {
		rows = []R{}
	}
	return dataset.Response[R]{Records: rows}, nil
}

// HTTPSources polls the report API at baseURL, e.g. "http://localhost:3001/api".
func HTTPSources(baseURL string, client *http.Client) Sources {
	base := strings.TrimRight(baseURL, "/")
	return Sources{
		Inventory: func() dataset.Fetcher[report.InventoryRecord] {
			return &dataset.HTTPFetcher[report.InventoryRecord]{Client: client, URL: base + "/inventory"}
		},
		Sales: func(f report.DateFilter) dataset.Fetcher[report.SalesRecord] {
			return &dataset.HTTPFetcher[report.SalesRecord]{
				Client: client,
				URL:    base + "/sales-report",
				Method: http.MethodPost,
				Body:   map[string]string{"dateFilter": string(f)},
			}
		},
	}
}
