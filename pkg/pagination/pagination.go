package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Trashed filter values
const (
	TrashedNone = ""
	TrashedWith = "with"
	TrashedOnly = "only"
)

// Params holds validated pagination parameters
type Params struct {
	Page    int
	Limit   int
	Offset  int
	Search  string
	Trashed string
}

// Parse extracts and validates page/limit/search/trashed from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	trashed := c.Query("trashed")
	if trashed != TrashedWith && trashed != TrashedOnly {
		trashed = TrashedNone
	}

	return Params{
		Page:    page,
		Limit:   limit,
		Offset:  (page - 1) * limit,
		Search:  c.Query("search"),
		Trashed: trashed,
	}
}
