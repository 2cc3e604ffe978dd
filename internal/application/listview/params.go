package listview

import (
	"net/url"
	"strconv"
)

// Query parameter names shared by every list-detail page.
const (
	ParamPage   = "page"
	ParamSearch = "q"
	ParamView   = "view"
	ParamClose  = "close"
)

// MaxSearchLength caps the search text taken from a request.
const MaxSearchLength = 200

// Params carries the list-detail parameters parsed from a request.
type Params struct {
	PageID string // page activation id; empty starts a new activation
	Search string // search text, kept exactly as typed
	View   string // record key to open in the detail modal
	Close  bool   // close the detail modal
}

// ParseParams extracts list-detail parameters from URL query values.
// PRE: none
// POST: Search is truncated to MaxSearchLength runes; Close accepts any strconv.ParseBool truth value
func ParseParams(q url.Values) Params {
	search := q.Get(ParamSearch)
	if r := []rune(search); len(r) > MaxSearchLength {
		search = string(r[:MaxSearchLength])
	}
	closeModal, _ := strconv.ParseBool(q.Get(ParamClose))
	return Params{
		PageID: q.Get(ParamPage),
		Search: search,
		View:   q.Get(ParamView),
		Close:  closeModal,
	}
}

// HasSearch reports whether the request carried a search parameter at all.
// An absent parameter keeps the page's current query; an empty one clears it.
func HasSearch(q url.Values) bool {
	_, ok := q[ParamSearch]
	return ok
}

// Link builds the query string that keeps the page activation and search text,
// optionally opening a record.
func Link(pageID, search, view string) string {
	q := url.Values{}
	if pageID != "" {
		q.Set(ParamPage, pageID)
	}
	if search != "" {
		q.Set(ParamSearch, search)
	}
	if view != "" {
		q.Set(ParamView, view)
	}
	return q.Encode()
}
