package query

import (
	"strings"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
)

// sourceAlias qualifies source columns so they never resolve to a projection
// alias of the same name.
const sourceAlias = "src"

// Param is one bound query parameter.
type Param struct {
	Name  string
	Value any
}

// Query is SQL text plus its bindings. Filter values only ever travel in
// Params.
type Query struct {
	Text       string
	Params     []Param
	Predicates []string

	dialect Dialect
}

// Args returns the parameters shaped for the driver.
func (q Query) Args() []any {
	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		args[i] = q.dialect.Arg(p.Name, p.Value)
	}
	return args
}

// Builder produces the report query for one table, dialect and variant. The
// projection is fixed at construction; Build only adds predicates.
type Builder struct {
	dialect Dialect
	schema  Schema
	variant domain.Variant

	state, city string
	effective   string
	projection  string
	from        string
}

// NewBuilder prepares the projection for schema in dialect d.
func NewBuilder(d Dialect, schema Schema, variant domain.Variant) *Builder {
	b := &Builder{
		dialect: d,
		schema:  schema,
		variant: variant,
	}
	c := schema.Columns
	b.state = b.col(c.State)
	b.city = b.col(c.City)
	b.effective = b.effectiveDate()
	b.from = d.QuoteTable(schema.Table) + " AS " + sourceAlias

	exprs := make([]string, 0, len(variant.Fields()))
	for _, f := range variant.Fields() {
		exprs = append(exprs, b.expr(f)+" AS "+d.QuoteIdent(string(f)))
	}
	b.projection = strings.Join(exprs, ",\n\t")
	return b
}

// Variant returns the schema variant the builder projects.
func (b *Builder) Variant() domain.Variant { return b.variant }

// Build returns the report query for criteria. Each criterion that is present
// adds exactly one AND predicate with a bound parameter; absent criteria add
// nothing. Build never fails.
func (b *Builder) Build(criteria domain.FilterCriteria) Query {
	criteria = criteria.Normalize()
	q := Query{dialect: b.dialect}

	add := func(name, lhs, op string, value any) {
		q.Params = append(q.Params, Param{Name: name, Value: value})
		pred := lhs + " " + op + " " + b.dialect.Placeholder(name, len(q.Params))
		q.Predicates = append(q.Predicates, pred)
	}
	if criteria.HasState() {
		add("State", b.state, "=", criteria.State)
	}
	if criteria.HasCity() {
		add("City", b.city, "=", criteria.City)
	}
	if criteria.StartDate != nil {
		add("StartDate", b.effective, ">=", *criteria.StartDate)
	}
	if criteria.EndDate != nil {
		add("EndDate", b.effective, "<=", *criteria.EndDate)
	}

	var sb strings.Builder
	sb.WriteString("SELECT\n\t")
	sb.WriteString(b.projection)
	sb.WriteString("\nFROM ")
	sb.WriteString(b.from)
	sb.WriteString("\nWHERE 1=1")
	for _, p := range q.Predicates {
		sb.WriteString("\n\tAND ")
		sb.WriteString(p)
	}
	sb.WriteString("\nORDER BY ")
	sb.WriteString(b.orderBy())
	sb.WriteString(", ")
	sb.WriteString(b.dialect.QuoteIdent(string(domain.FieldID)))

	q.Text = sb.String()
	return q
}

func (b *Builder) orderBy() string {
	return b.state + ", " + b.city
}

// col returns the qualified source column, or "" when unmapped.
func (b *Builder) col(name string) string {
	if name == "" {
		return ""
	}
	return sourceAlias + "." + b.dialect.QuoteIdent(name)
}

// effectiveDate is the QC date, falling back to the observation date. The
// same expression is used for the projection and the date predicates.
func (b *Builder) effectiveDate() string {
	c := b.schema.Columns
	expr := b.col(c.QCDate)
	if c.ObservationDate != "" {
		expr = "COALESCE(" + expr + ", " + b.col(c.ObservationDate) + ")"
	}
	return b.dialect.DateExpr(expr)
}

func (b *Builder) expr(f domain.Field) string {
	c := b.schema.Columns
	switch f {
	case domain.FieldID:
		return "ROW_NUMBER() OVER (ORDER BY " + b.orderBy() + ")"
	case domain.FieldSurveyID:
		return b.col(c.SurveyID)
	case domain.FieldState:
		return "COALESCE(NULLIF(" + b.state + ", ''), 'Unknown')"
	case domain.FieldDistrict:
		return "COALESCE(" + b.city + ", '')"
	case domain.FieldCity:
		return "COALESCE(NULLIF(" + b.city + ", ''), 'Unknown')"
	case domain.FieldLocation:
		if c.Address != "" {
			return "COALESCE(" + b.col(c.Address) + ", '')"
		}
		return "COALESCE(" + b.state + ", '')"
	case domain.FieldActualCapacity:
		return b.col(c.Capacity)
	case domain.FieldTotalArea:
		return b.col(c.Area)
	case domain.FieldQCStatus:
		return "COALESCE(" + b.col(c.QCStatus) + ", '')"
	case domain.FieldQCDate:
		return b.effective
	case domain.FieldLatitude:
		return b.col(c.Latitude)
	case domain.FieldLongitude:
		return b.col(c.Longitude)
	case domain.FieldFacilityType:
		return b.orLiteral(c.FacilityType, "''")
	case domain.FieldOwnerName:
		return b.orLiteral(c.OwnerName, "''")
	case domain.FieldContactNumber:
		return b.orLiteral(c.ContactNumber, "''")
	case domain.FieldNumberOfChambers:
		return b.orLiteral(c.Chambers, "0")
	case domain.FieldYearEstablished:
		return b.orLiteral(c.YearEstablished, "''")
	case domain.FieldUsedCapacity:
		return b.orLiteral(c.UsedCapacity, "NULL")
	case domain.FieldAvailableCapacity:
		return b.orLiteral(c.AvailableCapacity, "NULL")
	case domain.FieldTemperature:
		return b.orLiteral(c.Temperature, "NULL")
	default:
		return "NULL"
	}
}

func (b *Builder) orLiteral(column, literal string) string {
	if column == "" {
		return literal
	}
	return b.col(column)
}

// ColumnsQuery lists the columns of table in ordinal order. The table may be
// schema-qualified.
func (d Dialect) ColumnsQuery(table string) Query {
	schema, name := SplitTable(table)
	q := Query{dialect: d, Params: []Param{{Name: "Table", Value: name}}}
	if schema != "" {
		q.Params = append(q.Params, Param{Name: "Schema", Value: schema})
	}

	switch d.Name {
	case SQLite.Name:
		args := d.Placeholder("Table", 1)
		if schema != "" {
			args += ", " + d.Placeholder("Schema", 2)
		}
		q.Text = "SELECT name FROM pragma_table_info(" + args + ") ORDER BY cid"
	case Postgres.Name:
		q.Text = "SELECT column_name FROM information_schema.columns WHERE table_name = " + d.Placeholder("Table", 1)
		if schema != "" {
			q.Text += " AND table_schema = " + d.Placeholder("Schema", 2)
		}
		q.Text += " ORDER BY ordinal_position"
	default:
		q.Text = "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = " + d.Placeholder("Table", 1)
		if schema != "" {
			q.Text += " AND TABLE_SCHEMA = " + d.Placeholder("Schema", 2)
		}
		q.Text += " ORDER BY ORDINAL_POSITION"
	}
	return q
}
