package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		url  string
		want Params
	}{
		{"/x", Params{Page: 1, Limit: 12}},
		{"/x?page=3&limit=5", Params{Page: 3, Limit: 5}},
		{"/x?page=0&limit=-1", Params{Page: 1, Limit: 12}},
		{"/x?page=abc&limit=xyz", Params{Page: 1, Limit: 12}},
		{"/x?limit=1000", Params{Page: 1, Limit: MaxLimit}},
		{"/x?page=9223372036854775807&limit=100", Params{Page: MaxPage, Limit: MaxLimit}},
		{"/x?page=99999999999999999999999", Params{Page: 1, Limit: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Parse(httptest.NewRequest("GET", tt.url, nil), DefaultLimit)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	tests := []struct {
		p    Params
		want int64
	}{
		{Params{Page: 3, Limit: 12}, 24},
		{Params{Page: 1, Limit: 12}, 0},
		{Params{Page: 0, Limit: 12}, 0},
		{Params{Page: MaxPage, Limit: MaxLimit}, int64(MaxPage-1) * MaxLimit},
	}
	for _, tt := range tests {
		if got := tt.p.Skip(); got != tt.want {
			t.Errorf("%+v.Skip() = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestSkip_HugePageStaysNonNegative(t *testing.T) {
	p := Parse(httptest.NewRequest("GET", "/x?page=9223372036854775807&limit=100", nil), DefaultLimit)
	if got := p.Skip(); got < 0 {
		t.Fatalf("Skip = %d, want non-negative", got)
	}
}

func TestNewInfo_TotalPagesIsCeiling(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 12, 0},
		{1, 12, 1},
		{12, 12, 1},
		{13, 12, 2},
		{25, 5, 5},
	}
	for _, tt := range tests {
		info := NewInfo(Params{Page: 1, Limit: tt.limit}, tt.total)
		if info.TotalPages != tt.want {
			t.Errorf("total=%d limit=%d: totalPages = %d, want %d", tt.total, tt.limit, info.TotalPages, tt.want)
		}
	}
}
