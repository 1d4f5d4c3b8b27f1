// Package listing implements the shared contract for filtered, sorted and
// paginated index endpoints. Every list handler parses its query through
// Params, runs the database query through Paginate and gates its row actions
// through Action.Visible, so all lists behave identically.
package listing

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
)

// Pagination bounds.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// SortAsc and SortDesc are the only accepted sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// QueryGetter reads one query string value. *fiber.Ctx satisfies it.
type QueryGetter interface {
	Query(key string, defaultValue ...string) string
}

// Options declares what an endpoint accepts from the query string.
type Options struct {
	// SortFields whitelists sortable column names. The first entry is the
	// default sort field.
	SortFields []string
	// FilterKeys whitelists filter query parameters (e.g. "status").
	FilterKeys []string
}

// Params are the parsed, clamped list parameters for one request.
type Params struct {
	Page      int
	PerPage   int
	Search    string
	SortField string
	SortDir   string
	Filters   map[string]string
}

// FromQuery parses list parameters from a request query string
// (page, per_page, search, sort_field, sort_direction plus whitelisted
// filter keys). Out-of-range pages and page sizes are clamped, unknown sort
// fields fall back to the default and unknown filter keys are dropped.
func FromQuery(q QueryGetter, opts Options) Params {
	params := Params{
		Page:    1,
		PerPage: DefaultPerPage,
		Search:  strings.TrimSpace(q.Query("search")),
		SortDir: SortAsc,
		Filters: map[string]string{},
	}

	if page, err := strconv.Atoi(q.Query("page")); err == nil && page > 0 {
		params.Page = page
	}

	if perPage, err := strconv.Atoi(q.Query("per_page")); err == nil && perPage > 0 {
		params.PerPage = perPage
	}

	if params.PerPage > MaxPerPage {
		params.PerPage = MaxPerPage
	}

	if len(opts.SortFields) > 0 {
		params.SortField = opts.SortFields[0]

		requested := q.Query("sort_field")
		for _, field := range opts.SortFields {
			if field == requested {
				params.SortField = requested
				break
			}
		}
	}

	if q.Query("sort_direction") == SortDesc {
		params.SortDir = SortDesc
	}

	for _, key := range opts.FilterKeys {
		if v := strings.TrimSpace(q.Query(key)); v != "" {
			params.Filters[key] = v
		}
	}

	return params
}

// Order returns the ORDER BY clause for the parsed sort, or empty when the
// endpoint declared no sortable fields.
func (p Params) Order() string {
	if p.SortField == "" {
		return ""
	}

	return p.SortField + " " + p.SortDir
}

// SearchPattern returns the LIKE pattern for the search term.
func (p Params) SearchPattern() string {
	return "%" + p.Search + "%"
}

// Page is one page of results with pagination metadata, shaped the way the
// web client's pagination component expects it.
type Page[T any] struct {
	Data        []T   `json:"data"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	LastPage    int   `json:"last_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// Paginate counts the query, applies ordering and offset limits and scans one
// page into dest. The query must already be scoped and filtered; Paginate
// only adds ordering and pagination.
func Paginate[T any](query *gorm.DB, params Params, dest *[]T) (*Page[T], error) {
	if query == nil {
		return nil, errors.New("db query is nil")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count records")
	}

	lastPage := 1
	if total > 0 {
		lastPage = int(math.Ceil(float64(total) / float64(params.PerPage)))
	}

	page := params.Page
	if page > lastPage {
		page = lastPage
	}

	offset := (page - 1) * params.PerPage

	scoped := query
	if order := params.Order(); order != "" {
		scoped = scoped.Order(order)
	}

	if err := scoped.Offset(offset).Limit(params.PerPage).Find(dest).Error; err != nil {
		return nil, errors.Wrap(err, "failed to fetch records")
	}

	from := 0
	to := 0
	if len(*dest) > 0 {
		from = offset + 1
		to = offset + len(*dest)
	}

	return &Page[T]{
		Data:        *dest,
		Total:       total,
		CurrentPage: page,
		PerPage:     params.PerPage,
		LastPage:    lastPage,
		From:        from,
		To:          to,
	}, nil
}

// Action is one row action on a list (edit, delete, approve and so on).
// Visibility is decided in exactly one place for every action on every list.
type Action[T any] struct {
	Name string
	// Permission gates the action on the viewer's permission set; empty
	// means no permission required.
	Permission string
	// VisibleWhen further restricts the action per row; nil means visible
	// on every row.
	VisibleWhen func(row *T) bool
}

// Visible reports whether the action is shown for the given row and viewer
// permissions. An action is visible only when the viewer holds its permission
// and its row predicate accepts the row.
func (a Action[T]) Visible(row *T, perms auth.PermissionSet) bool {
	if a.Permission != "" && !perms.Has(a.Permission) {
		return false
	}

	if a.VisibleWhen != nil && !a.VisibleWhen(row) {
		return false
	}

	return true
}

// VisibleActions returns the names of the actions visible for one row.
func VisibleActions[T any](actions []Action[T], row *T, perms auth.PermissionSet) []string {
	names := make([]string, 0, len(actions))

	for _, action := range actions {
		if action.Visible(row, perms) {
			names = append(names, action.Name)
		}
	}

	return names
}
