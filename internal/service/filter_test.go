package service

import (
	"strings"
	"testing"

	"propertyhub_backend/internal/model"
)

func hasPredicate(preds []Predicate, fragment string) bool {
	for _, p := range preds {
		if strings.Contains(p.Query, fragment) {
			return true
		}
	}
	return false
}

func TestBuildFilterEmptyParams(t *testing.T) {
	f := BuildFilter(ScopeList, map[string]string{}, nil)
	if len(f.Property) != 0 || f.HasLocation() {
		t.Fatalf("expected no predicates, got %+v", f)
	}
}

func TestBuildFilterIgnoresBlankAndMalformedValues(t *testing.T) {
	f := BuildFilter(ScopeList, map[string]string{
		"city":        "  ",
		"bedroom":     "two",
		"min_price":   "cheap",
		"owner_id":    "-1",
		"is_featured": "yes",
	}, nil)
	if len(f.Property) != 0 || f.HasLocation() {
		t.Fatalf("expected malformed values to be ignored, got %+v", f)
	}
}

func TestBuildFilterTextSearch(t *testing.T) {
	f := BuildFilter(ScopeList, map[string]string{"search": "Villa"}, nil)
	if len(f.Property) != 1 {
		t.Fatalf("expected one predicate, got %d", len(f.Property))
	}
	p := f.Property[0]
	if !strings.Contains(p.Query, "slug") || len(p.Args) != 3 {
		t.Fatalf("list search must cover title, description and slug: %+v", p)
	}
	if p.Args[0] != "%villa%" {
		t.Fatalf("expected lower-cased pattern, got %v", p.Args[0])
	}

	f = BuildFilter(ScopeSearch, map[string]string{"query": "Villa"}, nil)
	if hasPredicate(f.Property, "slug") {
		t.Fatalf("search scope must not match on slug")
	}
	if !hasPredicate(f.Property, "LOWER(properties.title)") {
		t.Fatalf("expected title predicate from query alias")
	}
}

func TestBuildFilterEscapesWildcards(t *testing.T) {
	f := BuildFilter(ScopeSearch, map[string]string{"search": "100%_Off", "city": `a\b`}, nil)
	if got := f.Property[0].Args[0]; got != `%100\%\_off%` {
		t.Fatalf("expected escaped text pattern, got %v", got)
	}
	if got := f.Location[0].Args[0]; got != `%a\\b%` {
		t.Fatalf("expected escaped backslash, got %v", got)
	}
	if !strings.Contains(f.Property[0].Query, "ESCAPE") || !strings.Contains(f.Location[0].Query, "ESCAPE") {
		t.Fatalf("LIKE predicates must declare an escape character")
	}
}

func TestBuildFilterLocation(t *testing.T) {
	f := BuildFilter(ScopeList, map[string]string{"city": "Pune", "locality": "Baner"}, nil)
	if len(f.Location) != 2 {
		t.Fatalf("expected two location predicates, got %d", len(f.Location))
	}
	if f.Location[0].Args[0] != "%pune%" {
		t.Fatalf("unexpected city pattern %v", f.Location[0].Args[0])
	}
}

func TestBuildFilterSearchPinsPublished(t *testing.T) {
	f := BuildFilter(ScopeSearch, map[string]string{"status": "draft"}, nil)
	count := 0
	for _, p := range f.Property {
		if strings.Contains(p.Query, "status") {
			count++
			if p.Args[0] != model.PropertyStatusPublished {
				t.Fatalf("expected published status, got %v", p.Args[0])
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one status predicate, got %d", count)
	}
}

func TestBuildFilterFeaturedIgnoresCallerFlags(t *testing.T) {
	f := BuildFilter(ScopeFeatured, map[string]string{"is_featured": "false", "status": "draft"}, nil)
	featured := 0
	for _, p := range f.Property {
		if strings.Contains(p.Query, "is_featured") {
			featured++
			if p.Args[0] != true {
				t.Fatalf("featured listing must pin is_featured=true")
			}
		}
	}
	if featured != 1 {
		t.Fatalf("expected one is_featured predicate, got %d", featured)
	}
}

func TestBuildFilterAmenitiesOnlyForSearch(t *testing.T) {
	ids := []uint{1, 2}
	if hasPredicate(BuildFilter(ScopeList, nil, ids).Property, "property_amenities") {
		t.Fatalf("list scope must ignore amenity ids")
	}
	if !hasPredicate(BuildFilter(ScopeSearch, nil, ids).Property, "property_amenities") {
		t.Fatalf("search scope must filter by amenities")
	}
}

func TestBuildFilterPriceRange(t *testing.T) {
	f := BuildFilter(ScopeList, map[string]string{"min_price": "100", "max_price": "500.5"}, nil)
	if !hasPredicate(f.Property, "price >=") || !hasPredicate(f.Property, "price <=") {
		t.Fatalf("expected both price bounds, got %+v", f.Property)
	}
}

func TestParseAmenityIDs(t *testing.T) {
	got := ParseAmenityIDs("3, 1,x,3,0,,2")
	want := []uint{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if ids := ParseAmenityIDs(""); len(ids) != 0 {
		t.Fatalf("expected no ids, got %v", ids)
	}
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort(map[string]string{})
	if err != nil || s.Column != "created_at" || !s.Desc {
		t.Fatalf("unexpected default sort %+v, %v", s, err)
	}

	s, err = ParseSort(map[string]string{"sortBy": "price", "sortOrder": "ASC"})
	if err != nil || s.Column != "price" || s.Desc {
		t.Fatalf("unexpected sort %+v, %v", s, err)
	}

	if _, err := ParseSort(map[string]string{"sort_by": "password"}); err == nil {
		t.Fatalf("expected error for unknown sort column")
	} else if e, ok := AsError(err); !ok || e.Code != ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := ParseSort(map[string]string{"sort_order": "sideways"}); err == nil {
		t.Fatalf("expected error for unknown sort order")
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		params      map[string]string
		page, limit int
	}{
		{map[string]string{}, 1, 10},
		{map[string]string{"page": "3", "limit": "20"}, 3, 20},
		{map[string]string{"page": "0", "limit": "-5"}, 1, 10},
		{map[string]string{"page": "abc", "limit": "1000"}, 1, 100},
	}
	for _, tc := range cases {
		p := ParsePage(tc.params)
		if p.Page != tc.page || p.Limit != tc.limit {
			t.Fatalf("ParsePage(%v) = %+v, want page=%d limit=%d", tc.params, p, tc.page, tc.limit)
		}
	}

	if off := (Page{Page: 3, Limit: 20}).Offset(); off != 40 {
		t.Fatalf("expected offset 40, got %d", off)
	}
}

func TestNewPagination(t *testing.T) {
	p := newPagination(Page{Page: 1, Limit: 10}, 21)
	if p.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", p.TotalPages)
	}
	if p := newPagination(Page{Page: 1, Limit: 10}, 0); p.TotalPages != 0 {
		t.Fatalf("expected 0 pages for empty result, got %d", p.TotalPages)
	}
}
