package repo

import "regexp"

type (
	QueryField     string
	ComparisonOp   string
	OrderDirection string
)

const (
	Equal    ComparisonOp = "="
	NotEqual ComparisonOp = "!="

	Desc OrderDirection = "desc"
	Asc  OrderDirection = "asc"

	IDField             QueryField = "id"
	TenantIDField       QueryField = "tenant_id"
	StatusField         QueryField = "status"
	ServiceTypeField    QueryField = "service_type"
	SubdomainField      QueryField = "subdomain"
	PlanField           QueryField = "plan"
	IsActiveField       QueryField = "is_active"
	UsageTypeField      QueryField = "usage_type"
	CreatedField        QueryField = "created_at"
	PortRangeStartField QueryField = "port_range_start"
)

// fieldPattern guards against interpolating anything but a plain
// column name into SQL.
var fieldPattern = regexp.MustCompile(`^[a-z_]+$`)

func (f QueryField) Validate() error {
	if !fieldPattern.MatchString(string(f)) {
		return ErrInvalidFieldName
	}

	return nil
}

// Condition is one field comparison applied to a query.
type Condition struct {
	Field     QueryField
	Value     any
	Operation ComparisonOp
}

type Order struct {
	Field     QueryField
	Direction OrderDirection
}

// Query collects conditions, ordering and pagination for a store
// operation. Conditions always combine with AND.
type Query struct {
	Conds       []Condition
	OrderFields []Order
	Limit       int
	Offset      int
}

// NewQuery creates and returns a new empty Query.
func NewQuery() *Query {
	return &Query{}
}

// Where adds an equality condition, or a custom comparison when op is given.
func (q *Query) Where(field QueryField, value any, op ...ComparisonOp) *Query {
	operation := Equal
	if len(op) > 0 {
		operation = op[0]
	}

	q.Conds = append(q.Conds, Condition{Field: field, Value: value, Operation: operation})

	return q
}

func (q *Query) OrderBy(field QueryField, direction OrderDirection) *Query {
	q.OrderFields = append(q.OrderFields, Order{Field: field, Direction: direction})
	return q
}

func (q *Query) SetLimit(limit int) *Query {
	q.Limit = limit
	return q
}

func (q *Query) SetOffset(offset int) *Query {
	q.Offset = offset
	return q
}
