package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rclima/social-network-api/backend/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// respondList renders a list endpoint response: the bare result slice when no
// `page` parameter was sent, or the {count, next, previous, results} envelope
// when one was.
func respondList[T any](c echo.Context, items []T, page, pageSize *int) error {
	if items == nil {
		items = []T{}
	}
	if page == nil {
		return c.JSON(http.StatusOK, items)
	}

	size := defaultPageSize
	if pageSize != nil {
		size = *pageSize
		if size > maxPageSize {
			size = maxPageSize
		}
	}

	number := *page
	start := (number - 1) * size
	if start >= len(items) && number != 1 {
		return echo.NewHTTPError(http.StatusNotFound, "Invalid page.")
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	var next, previous *string
	if end < len(items) {
		next = pageURL(c, number+1)
	}
	if number > 1 {
		previous = pageURL(c, number-1)
	}

	return c.JSON(http.StatusOK, models.Page{
		Count:    len(items),
		Next:     next,
		Previous: previous,
		Results:  items[start:end],
	})
}

// pageURL rebuilds the request URL pointing at the given page number. A link
// back to page one drops the page parameter entirely.
func pageURL(c echo.Context, number int) *string {
	u := *c.Request().URL
	q := u.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	u.Scheme = c.Scheme()
	u.Host = c.Request().Host
	s := u.String()
	return &s
}

// matchesSearch reports whether the display name contains the search term,
// case-insensitively.
func matchesSearch(fullName, term string) bool {
	return strings.Contains(strings.ToLower(fullName), strings.ToLower(term))
}
