package web

import (
	"context"
	"log/slog"
	"net/http"

	"academy/internal/application/listview"
)

// listResponse is the JSON form of a list-detail page.
type listResponse[T any] struct {
	PageID     string `json:"page_id"`
	Query      string `json:"query"`
	Total      int    `json:"total"`
	Count      int    `json:"count"`
	Rows       []T    `json:"rows"`
	Selected   *T     `json:"selected"`
	FetchError string `json:"fetch_error,omitempty"`
}

// servePage applies the request's list-detail parameters to a page activation.
// Unknown or expired page ids start a new activation. The list is fetched at
// most once per activation; searching, opening and closing never refetch.
// PRE: reg and fetch are non-nil
// POST: returns the page snapshot after applying search, view and close
func servePage[T listview.Record](r *http.Request, reg *listview.Registry[T], fetch listview.Fetcher[T]) listview.View[T] {
	q := r.URL.Query()
	params := listview.ParseParams(q)

	page, fresh := reg.Resolve(params.PageID)
	if fresh && params.PageID != "" {
		slog.Debug("page_reactivated", "requested", params.PageID, "page", page.ID())
	}

	// A client disconnect during the first fetch must not leave the page empty for later requests.
	_ = page.Load(context.WithoutCancel(r.Context()), fetch)

	if listview.HasSearch(q) {
		page.SetQuery(params.Search)
	}
	switch {
	case params.Close:
		page.Close()
	case params.View != "":
		if !page.Select(params.View) {
			slog.Debug("select_unknown_record", "page", page.ID(), "key", params.View)
		}
	}
	return page.Snapshot()
}

// toListResponse converts a snapshot to its JSON form.
func toListResponse[T listview.Record](v listview.View[T]) listResponse[T] {
	resp := listResponse[T]{
		PageID:     v.PageID,
		Query:      v.Query,
		Total:      v.Total,
		Count:      len(v.Rows),
		Rows:       v.Rows,
		FetchError: fetchNotice(v.LoadErr),
	}
	if resp.Rows == nil {
		resp.Rows = []T{}
	}
	if v.Visible {
		sel := v.Selected
		resp.Selected = &sel
	}
	return resp
}
