package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the storage kind of a cell once its driver value has been classified.
// The set is closed: every driver value maps to exactly one kind.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindText
	KindDecimal
	KindDouble
	KindDate
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindDecimal:
		return "decimal"
	case KindDouble:
		return "double"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// Status reports how a decoded value was obtained.
type Status uint8

const (
	// StatusDecoded means the stored value was converted to the target type.
	StatusDecoded Status = iota
	// StatusAbsent means the column is not part of the row.
	StatusAbsent
	// StatusNull means the stored value is null.
	StatusNull
	// StatusUnconvertible means the stored kind has no conversion to the target
	// type, or the conversion failed (unparsable text, overflow, NaN).
	StatusUnconvertible
)

func (s Status) String() string {
	switch s {
	case StatusDecoded:
		return "decoded"
	case StatusAbsent:
		return "absent"
	case StatusNull:
		return "null"
	default:
		return "unconvertible"
	}
}

// Result is a decoded value. Value always holds something usable: when Status
// is not StatusDecoded it is the default for T.
type Result[T any] struct {
	Value  T
	Status Status
}

// OK reports whether the value came from the stored cell.
func (r Result[T]) OK() bool { return r.Status == StatusDecoded }

// Cell is a raw value as returned by the database driver, paired with the
// column's database type name (sql.ColumnType.DatabaseTypeName).
type Cell struct {
	Value        any
	DatabaseType string
}

// Row gives access to the cells of one result row by column name.
type Row interface {
	Lookup(column string) (Cell, bool)
}

// stored is a classified cell. Only the payload matching kind is meaningful.
type stored struct {
	kind Kind
	i    int64
	f    float64
	s    string
	d    decimal.Decimal
	t    time.Time
}

// classify maps a driver value onto the closed set of storage kinds.
func classify(c Cell) stored {
	switch v := c.Value.(type) {
	case nil:
		return stored{kind: KindNull}
	case int64:
		return stored{kind: KindInteger, i: v}
	case int32:
		return stored{kind: KindInteger, i: int64(v)}
	case int16:
		return stored{kind: KindInteger, i: int64(v)}
	case int8:
		return stored{kind: KindInteger, i: int64(v)}
	case int:
		return stored{kind: KindInteger, i: int64(v)}
	case uint8:
		return stored{kind: KindInteger, i: int64(v)}
	case uint16:
		return stored{kind: KindInteger, i: int64(v)}
	case uint32:
		return stored{kind: KindInteger, i: int64(v)}
	case uint64:
		if v > math.MaxInt64 {
			return stored{kind: KindUnknown}
		}
		return stored{kind: KindInteger, i: int64(v)}
	case bool:
		if v {
			return stored{kind: KindInteger, i: 1}
		}
		return stored{kind: KindInteger, i: 0}
	case float64:
		return stored{kind: KindDouble, f: v}
	case float32:
		return stored{kind: KindDouble, f: float64(v)}
	case decimal.Decimal:
		return stored{kind: KindDecimal, d: v}
	case time.Time:
		return stored{kind: KindDate, t: v}
	case string:
		return classifyText(v, c.DatabaseType)
	case []byte:
		if isBinaryType(c.DatabaseType) {
			return stored{kind: KindUnknown}
		}
		return classifyText(string(v), c.DatabaseType)
	default:
		return stored{kind: KindUnknown}
	}
}

// classifyText separates exact numerics delivered as text (SQL Server and
// PostgreSQL drivers return DECIMAL/NUMERIC/MONEY that way) from plain text.
func classifyText(s, dbType string) stored {
	if isDecimalType(dbType) {
		if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
			return stored{kind: KindDecimal, d: d}
		}
	}
	return stored{kind: KindText, s: s}
}

func isDecimalType(dbType string) bool {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	for _, prefix := range []string{"DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY"} {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func isBinaryType(dbType string) bool {
	switch strings.ToUpper(strings.TrimSpace(dbType)) {
	case "BINARY", "VARBINARY", "IMAGE", "BLOB", "BYTEA", "UNIQUEIDENTIFIER", "ROWVERSION", "TIMESTAMP":
		return true
	default:
		return false
	}
}

// lookup finds and classifies a column, reporting absent and null cells.
func lookup(row Row, column string) (stored, Status) {
	if row == nil {
		return stored{}, StatusAbsent
	}
	cell, ok := row.Lookup(column)
	if !ok {
		return stored{}, StatusAbsent
	}
	s := classify(cell)
	if s.kind == KindNull {
		return s, StatusNull
	}
	return s, StatusDecoded
}

func decode[T any](row Row, column string, convert func(stored) (T, bool), fallback func() T) Result[T] {
	s, status := lookup(row, column)
	if status == StatusDecoded {
		if v, ok := convert(s); ok {
			return Result[T]{Value: v, Status: StatusDecoded}
		}
		status = StatusUnconvertible
	}
	return Result[T]{Value: fallback(), Status: status}
}

func zero[T any]() T {
	var v T
	return v
}

// DecodeInt reads column as an integer. Text is parsed as base-10; decimals
// and doubles are rounded half to even. Defaults to 0.
func DecodeInt(row Row, column string) Result[int64] {
	return decode(row, column, toInt, zero[int64])
}

// DecodeString reads column as text. Only text-kind cells convert; numbers are
// not stringified. Defaults to "".
func DecodeString(row Row, column string) Result[string] {
	return decode(row, column, toString, zero[string])
}

// DecodeDecimal reads column as an exact decimal. Defaults to zero.
func DecodeDecimal(row Row, column string) Result[decimal.Decimal] {
	return decode(row, column, toDecimal, func() decimal.Decimal { return decimal.Zero })
}

// DecodeFloat reads column as a float64. Non-finite values are rejected.
// Defaults to 0.
func DecodeFloat(row Row, column string) Result[float64] {
	return decode(row, column, toFloat, zero[float64])
}

// DecodeTime reads column as a timestamp. Defaults to the current time at
// decode time.
func DecodeTime(row Row, column string) Result[time.Time] {
	return decode(row, column, toTime, Now)
}

func toInt(s stored) (int64, bool) {
	switch s.kind {
	case KindInteger:
		return s.i, true
	case KindText:
		v, err := strconv.ParseInt(strings.TrimSpace(s.s), 10, 64)
		return v, err == nil
	case KindDecimal:
		return decimalToInt(s.d)
	case KindDouble:
		return floatToInt(s.f)
	case KindNull, KindDate, KindUnknown:
		return 0, false
	}
	return 0, false
}

func toString(s stored) (string, bool) {
	switch s.kind {
	case KindText:
		return s.s, true
	case KindNull, KindInteger, KindDecimal, KindDouble, KindDate, KindUnknown:
		return "", false
	}
	return "", false
}

func toDecimal(s stored) (decimal.Decimal, bool) {
	switch s.kind {
	case KindInteger:
		return decimal.NewFromInt(s.i), true
	case KindText:
		d, err := decimal.NewFromString(strings.TrimSpace(s.s))
		return d, err == nil
	case KindDecimal:
		return s.d, true
	case KindDouble:
		if !isFinite(s.f) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(s.f), true
	case KindNull, KindDate, KindUnknown:
		return decimal.Zero, false
	}
	return decimal.Zero, false
}

func toFloat(s stored) (float64, bool) {
	switch s.kind {
	case KindInteger:
		return float64(s.i), true
	case KindText:
		v, err := strconv.ParseFloat(strings.TrimSpace(s.s), 64)
		return v, err == nil && isFinite(v)
	case KindDecimal:
		v, _ := s.d.Float64()
		return v, isFinite(v)
	case KindDouble:
		return s.f, isFinite(s.f)
	case KindNull, KindDate, KindUnknown:
		return 0, false
	}
	return 0, false
}

func toTime(s stored) (time.Time, bool) {
	switch s.kind {
	case KindDate:
		return s.t, true
	case KindText:
		return parseTimeText(s.s)
	case KindNull, KindInteger, KindDecimal, KindDouble, KindUnknown:
		return time.Time{}, false
	}
	return time.Time{}, false
}

// timeLayouts covers ISO-8601 text as written by SQLite date functions and
// by CSV imports. Layouts without a zone parse as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseTimeText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func decimalToInt(d decimal.Decimal) (int64, bool) {
	b := d.RoundBank(0).BigInt()
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// int64 bounds as float64; 2^63 itself is out of range.
const (
	minIntFloat = -float64(1 << 63)
	maxIntFloat = float64(1 << 63)
)

func floatToInt(f float64) (int64, bool) {
	if !isFinite(f) {
		return 0, false
	}
	r := math.RoundToEven(f)
	if r < minIntFloat || r >= maxIntFloat {
		return 0, false
	}
	return int64(r), true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
