package constants

// Reserved query parameters
const (
	QueryParamPage   = "page"
	QueryParamLimit  = "limit"
	QueryParamSort   = "sort"
	QueryParamFields = "fields"
)

// Pagination Limits
const (
	DefaultPage  = 1
	DefaultLimit = 100
	MinPage      = 1
	MinLimit     = 1
	MaxLimit     = 100
)

// Sort Orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query syntax
const (
	SortDescPrefix   = "-"
	ListSeparator    = ","
	VersionField     = "version"
	DefaultSortField = "createdAt"
)

// Preset query for the cheapest well-rated tours
const (
	TopCheapLimit  = "5"
	TopCheapSort   = "-ratingsAverage,price"
	TopCheapFields = "name,price,ratingsAverage,summary,difficulty"
)

// HPPWhitelist lists the filter fields that may repeat in a query string.
var HPPWhitelist = []string{
	"duration",
	"ratingsQuantity",
	"ratingsAverage",
	"maxGroupSize",
	"difficulty",
	"price",
}
