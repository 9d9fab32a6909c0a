package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultReadingsLimit = 100
	maxReadingsLimit     = 1000
)

type readingsQuery struct {
	from   time.Time
	to     time.Time
	limit  int
	offset int
}

// parseReadingsQuery reads from/to (RFC 3339), limit and offset. A missing
// from means the beginning of the archive and a missing to means now.
func parseReadingsQuery(r *http.Request) (readingsQuery, error) {
	q := r.URL.Query()
	out := readingsQuery{limit: defaultReadingsLimit}

	var err error
	if s := q.Get("from"); s != "" {
		out.from, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return readingsQuery{}, errors.New("invalid 'from' (expected RFC3339)")
		}
	}
	if s := q.Get("to"); s != "" {
		out.to, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return readingsQuery{}, errors.New("invalid 'to' (expected RFC3339)")
		}
	}
	if !out.from.IsZero() && !out.to.IsZero() && out.from.After(out.to) {
		return readingsQuery{}, errors.New("'from' must be <= 'to'")
	}

	if s := q.Get("limit"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil {
			return readingsQuery{}, errors.New("invalid 'limit' (expected integer)")
		}
		if n <= 0 {
			return readingsQuery{}, errors.New("'limit' must be > 0")
		}
		if n > maxReadingsLimit {
			return readingsQuery{}, errors.New("'limit' must be <= 1000")
		}
		out.limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n < 0 {
			return readingsQuery{}, errors.New("invalid 'offset' (expected non-negative integer)")
		}
		out.offset = n
	}

	if out.to.IsZero() {
		out.to = time.Now().UTC()
	}
	return out, nil
}

func zeroAsNullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
