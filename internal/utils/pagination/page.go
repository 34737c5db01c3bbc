package pagination

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a normalized page request.
type Page struct {
	Page   int
	Limit  int
	Offset int
}

// Normalize clamps page to >= 1 and limit to 1..MaxLimit, substituting DefaultLimit for
// a non-positive limit, and derives the row offset.
func Normalize(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit, Offset: (page - 1) * limit}
}
