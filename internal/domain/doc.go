// Package domain models cold storage facility survey records and the rules for
// turning loosely-typed survey rows into a report.
//
// # Data Source
//
// Records come from a single survey export table (Cold_Storage by default).
// The export tool names columns after the questionnaire text, so a capacity
// column is literally called
//
//	"What is the actual capacity of your facility (in metric tonnes)?"
//
// and the column types differ between deployments: the same question may be a
// DECIMAL in one database, a FLOAT in another and NVARCHAR in a third.
//
// # Survey Conventions
//
// State and city:
//
//	Free text, entered by surveyors. Missing values are reported as "Unknown"
//	by the query projection so they still group together in the report.
//	The district column is not collected separately; it mirrors the city.
//
// Dates:
//
//	"QC Date" is the quality-check date and is preferred. Rows that were never
//	quality checked fall back to "Observation Date". The chosen value is the
//	effective date, used both for display and for date-range filtering.
//
// Coordinates:
//
//	WGS-84 decimal degrees, usually FLOAT but sometimes text.
//
// # Decoding Policy
//
// A report must always render. Each field of a [StorageRecord] is decoded on
// its own through [DecodeInt], [DecodeString], [DecodeDecimal], [DecodeFloat]
// or [DecodeTime]. When a column is missing, null, or holds a value that
// cannot be converted, the field takes the zero value of its type (the
// current time for dates) and the [Result] reports why. Only a failure to
// read rows at all fails a report.
//
// # Schema Variants
//
// Two shapes of the export are in use. The registry shape carries facility
// type, owner, contact and chamber details; the utilization shape carries used
// and available capacity plus storage temperature. [StorageRecord] is the
// superset of both and [Variant] selects which fields a deployment projects.
package domain
