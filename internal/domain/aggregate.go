package domain

import "fmt"

// Cursor is a forward-only source of rows, typically a SQL result set.
type Cursor interface {
	// Next advances to the next row. It returns false when the rows are
	// exhausted or reading failed; Err tells the two apart.
	Next() bool
	// Row returns the current row.
	Row() (Row, error)
	// Err returns the error, if any, that stopped iteration.
	Err() error
	// Close releases the underlying result set.
	Close() error
}

// DefaultKey identifies a field that fell back to its default and why.
type DefaultKey struct {
	Field  Field
	Reason Status
}

// DecodeStats counts defaulted fields across a report, keyed by field and reason.
type DecodeStats map[DefaultKey]int

// Total returns the number of defaulted fields.
func (s DecodeStats) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// AggregateResult is the materialized output of one report pass.
type AggregateResult struct {
	Records []StorageRecord
	Facets  FacetSet
	Stats   DecodeStats
}

// Aggregate decodes every row of cur into a StorageRecord, in delivery order,
// and derives the facets from the decoded records. Field-level problems never
// fail the pass; only an error reading the cursor does.
//
// Stats only count fields the variant projects, so fields that belong to the
// other variant do not show up as defaults on every row.
func Aggregate(cur Cursor, variant Variant) (AggregateResult, error) {
	projected := make(map[Field]bool)
	for _, f := range variant.Fields() {
		projected[f] = true
	}

	res := AggregateResult{
		Records: []StorageRecord{},
		Stats:   DecodeStats{},
	}
	track := func(f Field, s Status) {
		if projected[f] {
			res.Stats[DefaultKey{Field: f, Reason: s}]++
		}
	}

	for cur.Next() {
		row, err := cur.Row()
		if err != nil {
			return AggregateResult{}, fmt.Errorf("read row %d: %w", len(res.Records)+1, err)
		}
		res.Records = append(res.Records, decodeRecord(row, track))
	}
	if err := cur.Err(); err != nil {
		return AggregateResult{}, fmt.Errorf("iterate rows: %w", err)
	}

	res.Facets = DeriveFacets(res.Records)
	return res, nil
}

// DecodeRecord converts one row into a StorageRecord using the projection
// aliases as column names. Every field is populated.
func DecodeRecord(row Row) StorageRecord {
	return decodeRecord(row, nil)
}

func decodeRecord(row Row, track func(Field, Status)) StorageRecord {
	field := func(f Field, s Status) {
		if track != nil {
			track(f, s)
		}
	}

	return StorageRecord{
		ID:             get(row, FieldID, DecodeInt, field),
		SurveyID:       get(row, FieldSurveyID, DecodeString, field),
		State:          get(row, FieldState, DecodeString, field),
		District:       get(row, FieldDistrict, DecodeString, field),
		City:           get(row, FieldCity, DecodeString, field),
		Location:       get(row, FieldLocation, DecodeString, field),
		ActualCapacity: get(row, FieldActualCapacity, DecodeDecimal, field),
		TotalArea:      get(row, FieldTotalArea, DecodeDecimal, field),
		QCStatus:       get(row, FieldQCStatus, DecodeString, field),
		QCDate:         get(row, FieldQCDate, DecodeTime, field),
		Latitude:       get(row, FieldLatitude, DecodeFloat, field),
		Longitude:      get(row, FieldLongitude, DecodeFloat, field),

		FacilityType:     get(row, FieldFacilityType, DecodeString, field),
		OwnerName:        get(row, FieldOwnerName, DecodeString, field),
		ContactNumber:    get(row, FieldContactNumber, DecodeString, field),
		NumberOfChambers: get(row, FieldNumberOfChambers, DecodeInt, field),
		YearEstablished:  get(row, FieldYearEstablished, DecodeString, field),

		UsedCapacity:      get(row, FieldUsedCapacity, DecodeDecimal, field),
		AvailableCapacity: get(row, FieldAvailableCapacity, DecodeDecimal, field),
		Temperature:       get(row, FieldTemperature, DecodeFloat, field),
	}
}

func get[T any](row Row, f Field, dec func(Row, string) Result[T], track func(Field, Status)) T {
	r := dec(row, string(f))
	if !r.OK() {
		track(f, r.Status)
	}
	return r.Value
}
