package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
)

// dateLayouts are accepted for startDate and endDate. A bare date means
// midnight UTC.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseCriteria reads the filter query parameters. Blank values are absent;
// a date that does not parse is an error.
func parseCriteria(v url.Values) (domain.FilterCriteria, error) {
	c := domain.FilterCriteria{
		State: v.Get("state"),
		City:  v.Get("city"),
	}

	var err error
	if c.StartDate, err = parseDate("startDate", v.Get("startDate")); err != nil {
		return domain.FilterCriteria{}, err
	}
	if c.EndDate, err = parseDate("endDate", v.Get("endDate")); err != nil {
		return domain.FilterCriteria{}, err
	}
	return c.Normalize(), nil
}

func parseDate(param, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q: want YYYY-MM-DD or RFC 3339", param, raw)
}
