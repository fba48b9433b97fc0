package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request:
// page/limit plus an optional sortBy column and orderBy direction.
type Params struct {
	Page    int
	Limit   int
	SortBy  string
	OrderBy string // "asc" or "desc"
}

// FromContext extracts pagination parameters from the echo context.
func FromContext(c echo.Context) Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	orderBy := strings.ToLower(c.QueryParam("orderBy"))
	if orderBy != "asc" && orderBy != "desc" {
		orderBy = "desc"
	}

	return Params{
		Page:    page,
		Limit:   limit,
		SortBy:  c.QueryParam("sortBy"),
		OrderBy: orderBy,
	}
}

// Offset returns the SQL offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// OrderClause returns a safe ORDER BY clause. The sort column is checked
// against the caller's whitelist; anything else falls back to fallback.
func (p Params) OrderClause(allowed map[string]string, fallback string) string {
	col, ok := allowed[p.SortBy]
	if !ok {
		col = fallback
	}
	dir := "DESC"
	if p.OrderBy == "asc" {
		dir = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s", col, dir)
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Page:    p.Page,
		Limit:   p.Limit,
		HasMore: p.Offset()+p.Limit < total,
	}
}
