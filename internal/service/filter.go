package service

import (
	"strconv"
	"strings"

	"gorm.io/gorm/clause"

	"propertyhub_backend/internal/model"
)

// Scope selects which listing a filter is built for.
type Scope int

const (
	ScopeList Scope = iota
	ScopeSearch
	ScopeFeatured
	ScopeOwner
)

// Predicate is a single SQL condition with its bind arguments.
type Predicate struct {
	Query string
	Args  []interface{}
}

// PropertyFilter holds the conditions on properties and, separately, on their
// location. Any location predicate turns the location join into a filtering one.
type PropertyFilter struct {
	Property []Predicate
	Location []Predicate
}

func (f PropertyFilter) HasLocation() bool {
	return len(f.Location) > 0
}

// BuildFilter translates a query-parameter bag into predicates. Absent or
// empty values never add a condition, and malformed numbers are ignored.
func BuildFilter(scope Scope, params map[string]string, amenityIDs []uint) PropertyFilter {
	var f PropertyFilter
	get := func(key string) string {
		return strings.TrimSpace(params[key])
	}

	text := get("search")
	if text == "" {
		text = get("query")
	}
	if text != "" {
		pattern := containsPattern(text)
		if scope == ScopeList {
			f.add("(LOWER(properties.title) LIKE ? ESCAPE '\\' OR LOWER(properties.description) LIKE ? ESCAPE '\\' OR LOWER(properties.slug) LIKE ? ESCAPE '\\')",
				pattern, pattern, pattern)
		} else {
			f.add("(LOWER(properties.title) LIKE ? ESCAPE '\\' OR LOWER(properties.description) LIKE ? ESCAPE '\\')", pattern, pattern)
		}
	}

	for _, col := range []string{"property_type", "listing_type", "furnish_type"} {
		if v := get(col); v != "" {
			f.add("properties."+col+" = ?", v)
		}
	}

	// the featured and search listings pin status themselves
	if scope == ScopeList || scope == ScopeOwner {
		if v := get("status"); v != "" {
			f.add("properties.status = ?", v)
		}
	}

	for _, col := range []string{"bedroom", "bathroom"} {
		if n, err := strconv.Atoi(get(col)); err == nil {
			f.add("properties."+col+" = ?", n)
		}
	}

	if id, err := strconv.ParseUint(get("owner_id"), 10, 64); err == nil {
		f.add("properties.owner_id = ?", uint(id))
	}

	if scope != ScopeFeatured {
		if b, ok := triState(get("is_featured")); ok {
			f.add("properties.is_featured = ?", b)
		}
	}
	if b, ok := triState(get("is_verified")); ok {
		f.add("properties.is_verified = ?", b)
	}

	if v, err := strconv.ParseFloat(get("min_price"), 64); err == nil {
		f.add("properties.price >= ?", v)
	}
	if v, err := strconv.ParseFloat(get("max_price"), 64); err == nil {
		f.add("properties.price <= ?", v)
	}

	for _, col := range []string{"city", "locality"} {
		if v := get(col); v != "" {
			f.Location = append(f.Location, Predicate{
				Query: "LOWER(locations." + col + ") LIKE ? ESCAPE '\\'",
				Args:  []interface{}{containsPattern(v)},
			})
		}
	}

	if scope == ScopeSearch && len(amenityIDs) > 0 {
		f.add("properties.id IN (SELECT property_id FROM property_amenities WHERE amenity_id IN ?)", amenityIDs)
	}

	switch scope {
	case ScopeSearch:
		f.add("properties.status = ?", model.PropertyStatusPublished)
	case ScopeFeatured:
		f.add("properties.is_featured = ?", true)
		f.add("properties.status = ?", model.PropertyStatusPublished)
	}

	return f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive substring pattern in which the
// user's % and _ match literally.
func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(v)) + "%"
}

func (f *PropertyFilter) add(query string, args ...interface{}) {
	f.Property = append(f.Property, Predicate{Query: query, Args: args})
}

// triState accepts only the literal strings "true" and "false".
func triState(v string) (bool, bool) {
	switch v {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ParseAmenityIDs reads a comma separated id list, skipping anything that is
// not a positive integer.
func ParseAmenityIDs(raw string) []uint {
	var ids []uint
	seen := make(map[uint]bool)
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 || seen[uint(id)] {
			continue
		}
		seen[uint(id)] = true
		ids = append(ids, uint(id))
	}
	return ids
}

// Sortable columns. Anything else is rejected before it reaches SQL.
var sortableColumns = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"price":       true,
	"area":        true,
	"bedroom":     true,
	"bathroom":    true,
	"views_count": true,
	"title":       true,
}

type Sort struct {
	Column string
	Desc   bool
}

func (s Sort) orderBy() clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Table: "properties", Name: s.Column},
		Desc:   s.Desc,
	}
}

// ParseSort reads sort_by/sort_order (camelCase aliases accepted). The
// default is newest first.
func ParseSort(params map[string]string) (Sort, error) {
	column := strings.TrimSpace(params["sort_by"])
	if column == "" {
		column = strings.TrimSpace(params["sortBy"])
	}
	direction := strings.ToLower(strings.TrimSpace(params["sort_order"]))
	if direction == "" {
		direction = strings.ToLower(strings.TrimSpace(params["sortOrder"]))
	}

	sort := Sort{Column: "created_at", Desc: true}
	if column != "" {
		if !sortableColumns[column] {
			return Sort{}, newValidationError("cannot sort by %q", column)
		}
		sort.Column = column
	}

	switch direction {
	case "":
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	default:
		return Sort{}, newValidationError("invalid sort order %q", direction)
	}
	return sort, nil
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePage normalises page/limit; non-positive or malformed values fall
// back to the defaults.
func ParsePage(params map[string]string) Page {
	page, err := strconv.Atoi(strings.TrimSpace(params["page"]))
	if err != nil || page < 1 {
		page = defaultPage
	}
	limit, err := strconv.Atoi(strings.TrimSpace(params["limit"]))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}
