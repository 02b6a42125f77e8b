package model

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	QueryKeyPaginate = "paginate"
	QueryKeyPerPage  = "per_page"
	QueryKeyPage     = "page"

	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is one bounded slice of a larger result set together with its position.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page,omitempty"`
	Total       int64 `json:"total,omitempty"`
	From        int   `json:"from,omitempty"`
	To          int   `json:"to,omitempty"`
}

type SubscriberPage = Page[Subscriber]

type TemplatePage = Page[Template]

// EmptyPage returns a page with no rows, used before the first fetch resolves.
func EmptyPage[T any]() Page[T] {
	return Page[T]{Data: []T{}}
}

// NewPage builds a page for rows fetched at the given position.
func NewPage[T any](data []T, total int64, perPage int, currentPage int) Page[T] {
	if data == nil {
		data = []T{}
	}
	page := Page[T]{
		Data:        data,
		CurrentPage: currentPage,
		LastPage:    LastPage(total, perPage),
		PerPage:     perPage,
		Total:       total,
	}
	if len(data) > 0 {
		page.From = Offset(currentPage, perPage) + 1
		page.To = page.From + len(data) - 1
	}
	return page
}

// LastPage returns the number of pages needed for total rows, never less than one.
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Offset returns the index of the first row on the given page.
func Offset(page int, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}

// PageRequest describes which slice of a collection to read.
type PageRequest struct {
	Paginate bool
	PerPage  int
	Page     int
}

// Values encodes the request as the paginate, per_page and page query parameters.
func (request PageRequest) Values() url.Values {
	values := url.Values{}
	values.Set(QueryKeyPaginate, strconv.FormatBool(request.Paginate))
	values.Set(QueryKeyPerPage, strconv.Itoa(request.PerPage))
	values.Set(QueryKeyPage, strconv.Itoa(request.Page))
	return values
}

// ParsePageRequest reads paging parameters from a query, applying defaults for
// missing or out-of-range values.
func ParsePageRequest(values url.Values) PageRequest {
	request := PageRequest{Paginate: true, PerPage: DefaultPerPage, Page: 1}

	if rawPaginate := strings.TrimSpace(values.Get(QueryKeyPaginate)); rawPaginate != "" {
		if paginate, parseErr := strconv.ParseBool(rawPaginate); parseErr == nil {
			request.Paginate = paginate
		}
	}
	if perPage, parseErr := strconv.Atoi(strings.TrimSpace(values.Get(QueryKeyPerPage))); parseErr == nil && perPage > 0 {
		request.PerPage = perPage
	}
	if request.PerPage > MaxPerPage {
		request.PerPage = MaxPerPage
	}
	if page, parseErr := strconv.Atoi(strings.TrimSpace(values.Get(QueryKeyPage))); parseErr == nil && page > 0 {
		request.Page = page
	}
	return request
}
