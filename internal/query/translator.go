// Package query turns request query strings into store-agnostic descriptors.
//
// A Descriptor is pure data: building one never touches the database. The
// repository layer decides how each descriptor maps onto columns.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/natours/api/internal/constants"
)

// Operator is a comparison applied to a filter field.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

// suffix order matters: "[gte]" must be tried before "[gt]".
var operatorSuffixes = []struct {
	suffix string
	op     Operator
}{
	{"[gte]", OpGte},
	{"[gt]", OpGt},
	{"[lte]", OpLte},
	{"[lt]", OpLt},
}

// Condition is a single field comparison. Values holds more than one entry
// only for equality on a multi-value field, which means set membership.
type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

// Direction of a sort key.
type Direction string

const (
	Asc  Direction = constants.OrderAsc
	Desc Direction = constants.OrderDesc
)

// SortKey is one (field, direction) pair.
type SortKey struct {
	Field     string
	Direction Direction
}

// Projection selects returned fields. Include wins when both are set.
type Projection struct {
	Include []string
	Exclude []string
}

// Descriptor bundles filter, sort, projection and pagination.
type Descriptor struct {
	filter     []Condition
	sort       []SortKey
	projection Projection
	page       int
	limit      int
}

type options struct {
	multiValue map[string]bool
}

// Option customizes Parse.
type Option func(*options)

// WithMultiValue allows the given fields to repeat in the query string.
func WithMultiValue(fields ...string) Option {
	return func(o *options) {
		for _, f := range fields {
			o.multiValue[f] = true
		}
	}
}

var reserved = map[string]bool{
	constants.QueryParamPage:   true,
	constants.QueryParamLimit:  true,
	constants.QueryParamSort:   true,
	constants.QueryParamFields: true,
}

// IsReserved reports whether key is a pagination, sort or projection key.
func IsReserved(key string) bool {
	return reserved[key]
}

// Parse builds a Descriptor from raw query values.
func Parse(values url.Values, opts ...Option) Descriptor {
	o := options{multiValue: map[string]bool{}}
	for _, opt := range opts {
		opt(&o)
	}

	page, limit := parsePagination(values)

	return Descriptor{
		filter:     parseFilter(values, o),
		sort:       parseSort(last(values[constants.QueryParamSort])),
		projection: parseFields(last(values[constants.QueryParamFields])),
		page:       page,
		limit:      limit,
	}
}

func parseFilter(values url.Values, o options) []Condition {
	keys := make([]string, 0, len(values))
	for k := range values {
		if !IsReserved(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	filter := make([]Condition, 0, len(keys))
	for _, key := range keys {
		raw := values[key]
		if len(raw) == 0 {
			continue
		}

		field, op := splitOperator(key)
		cond := Condition{Field: field, Op: op}
		if op == OpEq && o.multiValue[field] && len(raw) > 1 {
			cond.Values = append([]string(nil), raw...)
		} else {
			cond.Values = []string{last(raw)}
		}
		filter = append(filter, cond)
	}
	return filter
}

func splitOperator(key string) (string, Operator) {
	for _, s := range operatorSuffixes {
		if strings.HasSuffix(key, s.suffix) {
			return strings.TrimSuffix(key, s.suffix), s.op
		}
	}
	return key, OpEq
}

func parseSort(raw string) []SortKey {
	var keys []SortKey
	for _, part := range splitList(raw) {
		if strings.HasPrefix(part, constants.SortDescPrefix) {
			field := strings.TrimPrefix(part, constants.SortDescPrefix)
			if field != "" {
				keys = append(keys, SortKey{Field: field, Direction: Desc})
			}
			continue
		}
		keys = append(keys, SortKey{Field: part, Direction: Asc})
	}
	if len(keys) == 0 {
		keys = []SortKey{{Field: constants.DefaultSortField, Direction: Desc}}
	}
	return keys
}

func parseFields(raw string) Projection {
	var p Projection
	for _, part := range splitList(raw) {
		if strings.HasPrefix(part, constants.SortDescPrefix) {
			if field := strings.TrimPrefix(part, constants.SortDescPrefix); field != "" {
				p.Exclude = append(p.Exclude, field)
			}
			continue
		}
		p.Include = append(p.Include, part)
	}
	if len(p.Include) == 0 && len(p.Exclude) == 0 {
		p.Exclude = []string{constants.VersionField}
	}
	return p
}

func parsePagination(values url.Values) (int, int) {
	page, err := strconv.Atoi(last(values[constants.QueryParamPage]))
	if err != nil || page < constants.MinPage {
		page = constants.DefaultPage
	}

	limit, err := strconv.Atoi(last(values[constants.QueryParamLimit]))
	if err != nil || limit < constants.MinLimit {
		limit = constants.DefaultLimit
	}
	if limit > constants.MaxLimit {
		limit = constants.MaxLimit
	}

	// Skip must stay representable.
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}
	return page, limit
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, constants.ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func last(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// Filter returns a copy of the filter conditions, ordered by field.
func (d Descriptor) Filter() []Condition {
	out := make([]Condition, len(d.filter))
	for i, c := range d.filter {
		out[i] = Condition{Field: c.Field, Op: c.Op, Values: append([]string(nil), c.Values...)}
	}
	return out
}

// Sort returns a copy of the sort keys.
func (d Descriptor) Sort() []SortKey {
	return append([]SortKey(nil), d.sort...)
}

// Projection returns a copy of the field projection.
func (d Descriptor) Projection() Projection {
	return Projection{
		Include: append([]string(nil), d.projection.Include...),
		Exclude: append([]string(nil), d.projection.Exclude...),
	}
}

func (d Descriptor) Page() int  { return d.page }
func (d Descriptor) Limit() int { return d.limit }

// Skip is the number of records before the current page.
func (d Descriptor) Skip() int { return (d.page - 1) * d.limit }

// WithFilter returns a copy of d with an extra equality condition.
func (d Descriptor) WithFilter(field string, value string) Descriptor {
	d.filter = append(d.Filter(), Condition{Field: field, Op: OpEq, Values: []string{value}})
	return d
}

// String renders a readable form for logs. Use Key for cache keys.
func (d Descriptor) String() string {
	var b strings.Builder
	for _, c := range d.filter {
		fmt.Fprintf(&b, "f:%s:%s:%s;", c.Field, c.Op, strings.Join(c.Values, "|"))
	}
	for _, s := range d.sort {
		fmt.Fprintf(&b, "s:%s:%s;", s.Field, s.Direction)
	}
	fmt.Fprintf(&b, "i:%s;e:%s;", strings.Join(d.projection.Include, ","), strings.Join(d.projection.Exclude, ","))
	fmt.Fprintf(&b, "p:%d;l:%d", d.page, d.limit)
	return b.String()
}

type descriptorKey struct {
	Filter     []Condition `json:"f"`
	Sort       []SortKey   `json:"s"`
	Projection Projection  `json:"p"`
	Page       int         `json:"pg"`
	Limit      int         `json:"l"`
}

// Key returns a digest of d. Descriptors share a key only when every
// condition, sort key, projection and page setting is equal.
func (d Descriptor) Key() string {
	raw, err := json.Marshal(descriptorKey{
		Filter:     d.filter,
		Sort:       d.sort,
		Projection: d.projection,
		Page:       d.page,
		Limit:      d.limit,
	})
	if err != nil {
		return d.String()
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
