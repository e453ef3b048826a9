package favorites

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
)

// Navigator replaces the current location without adding a history entry.
// Implementations must not block or call back into the controller.
type Navigator interface {
	Replace(location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(location string)

func (f NavigatorFunc) Replace(location string) { f(location) }

// CanonicalQuery renders ?search=<s>&page=<p>&limit=<l> in that order. The
// search key is left out when empty so "no search" and "search=" never both
// appear in history.
func CanonicalQuery(q domain.PageQuery) string {
	q = q.Normalize()
	var b strings.Builder
	b.WriteByte('?')
	if q.Search != "" {
		b.WriteString("search=")
		b.WriteString(url.QueryEscape(q.Search))
		b.WriteByte('&')
	}
	b.WriteString("page=")
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(q.Limit))
	return b.String()
}

// ParseQuery reads a deep link. The limit is fixed by the caller; whatever the
// URL says about it is ignored.
func ParseQuery(rawQuery string, limit int) domain.PageQuery {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	values, _ := url.ParseQuery(rawQuery)

	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return domain.PageQuery{
		Page:   page,
		Limit:  limit,
		Search: values.Get("search"),
	}.Normalize()
}

// Synchronizer keeps the location's query string in step with the list state.
type Synchronizer struct {
	Path string
	Nav  Navigator

	mu   sync.Mutex
	last string
}

func NewSynchronizer(path string, nav Navigator) *Synchronizer {
	return &Synchronizer{Path: path, Nav: nav}
}

// Sync requests a replace to the canonical URL for q and returns it. Nothing
// is sent when the URL is unchanged.
func (s *Synchronizer) Sync(q domain.PageQuery) string {
	location := s.Path + CanonicalQuery(q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if location == s.last {
		return location
	}
	s.last = location
	if s.Nav != nil {
		s.Nav.Replace(location)
	}
	return location
}

// Location returns the last synchronized URL.
func (s *Synchronizer) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
