// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size when the client does not ask for one.
const DefaultLimit = 12

// MaxLimit caps client-requested page sizes.
const MaxLimit = 100

// MaxPage caps client-requested page numbers so Skip stays in range.
const MaxPage = 1_000_000

// Params is a page request: 1-based page number and page size.
type Params struct {
	Page  int
	Limit int
}

// Parse reads ?page and ?limit. Missing, non-numeric or non-positive values
// fall back to page 1 and defLimit; limit is capped at MaxLimit and page at
// MaxPage.
func Parse(r *http.Request, defLimit int) Params {
	p := Params{Page: positiveInt(query.Get(r, "page"), 1), Limit: positiveInt(query.Get(r, "limit"), defLimit)}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

// Skip is the number of documents before this page.
func (p Params) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return int64(p.Page-1) * int64(p.Limit)
}

// Info is the pagination block returned with list responses.
type Info struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// NewInfo computes totalPages = ceil(total/limit).
func NewInfo(p Params, total int64) Info {
	pages := int64(0)
	if p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return Info{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
