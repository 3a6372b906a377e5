package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

const (
	// DefaultLimit is the page size used when the caller does not pick one.
	DefaultLimit = 25
	// MaxLimit caps a single page; order and contact listings never fetch
	// more rows than this plus the look-ahead row.
	MaxLimit = 100

	tokenSeparator = "."
)

// Params carries the limit and opaque cursor taken from query parameters.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins a position in a listing ordered by creation time, newest
// first. The id breaks ties between rows created in the same instant, which
// happens when several orders land inside one transaction batch.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Token serializes the cursor into an opaque, URL-safe string handed to
// clients as next_cursor.
func (c Cursor) Token() string {
	raw := strconv.FormatInt(c.CreatedAt.UTC().UnixNano(), 10) + tokenSeparator + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode rebuilds a cursor from a client-supplied token. An empty token means
// the first page and returns nil without error; anything malformed is a
// validation failure so the handler reports it as a bad request.
func Decode(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed cursor")
	}
	timestamp, idPart, found := strings.Cut(string(raw), tokenSeparator)
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "malformed cursor")
	}

	nanos, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("bad cursor timestamp %q", timestamp))
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "bad cursor id")
	}

	return &Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// ClampLimit maps absent or oversized limits onto the allowed range.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// FetchSize is the row count repositories actually query: one past the page
// so the service can tell whether a next page exists.
func FetchSize(limit int) int {
	return ClampLimit(limit) + 1
}
