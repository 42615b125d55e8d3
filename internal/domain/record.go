package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field names a semantic column of the report projection. The query builder
// aliases every projected expression to one of these names and the decoder
// looks them up by the same name.
type Field string

const (
	FieldID                Field = "Id"
	FieldSurveyID          Field = "SurveyId"
	FieldState             Field = "State"
	FieldDistrict          Field = "District"
	FieldCity              Field = "City"
	FieldLocation          Field = "Location"
	FieldActualCapacity    Field = "ActualCapacity"
	FieldTotalArea         Field = "TotalArea"
	FieldQCStatus          Field = "QCStatus"
	FieldQCDate            Field = "QCDate"
	FieldLatitude          Field = "Latitude"
	FieldLongitude         Field = "Longitude"
	FieldFacilityType      Field = "FacilityType"
	FieldOwnerName         Field = "OwnerName"
	FieldContactNumber     Field = "ContactNumber"
	FieldNumberOfChambers  Field = "NumberOfChambers"
	FieldYearEstablished   Field = "YearEstablished"
	FieldUsedCapacity      Field = "UsedCapacity"
	FieldAvailableCapacity Field = "AvailableCapacity"
	FieldTemperature       Field = "Temperature"
)

// commonFields are projected by every schema variant, in projection order.
var commonFields = []Field{
	FieldID, FieldSurveyID, FieldState, FieldDistrict, FieldCity, FieldLocation,
	FieldActualCapacity, FieldTotalArea, FieldQCStatus, FieldQCDate,
	FieldLatitude, FieldLongitude,
}

// Variant selects which of the two known export shapes a deployment uses.
type Variant string

const (
	// VariantRegistry is the facility registry shape: type, owner, contact,
	// chambers and year established.
	VariantRegistry Variant = "registry"
	// VariantUtilization is the utilization shape: used and available
	// capacity plus storage temperature.
	VariantUtilization Variant = "utilization"
)

// ParseVariant validates a variant name. Matching is case-insensitive.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantRegistry, VariantUtilization:
		return v, nil
	default:
		return "", fmt.Errorf("unknown schema variant %q (want %q or %q)", s, VariantRegistry, VariantUtilization)
	}
}

// ExtraFields returns the fields projected only by this variant.
func (v Variant) ExtraFields() []Field {
	switch v {
	case VariantUtilization:
		return []Field{FieldUsedCapacity, FieldAvailableCapacity, FieldTemperature}
	default:
		return []Field{FieldFacilityType, FieldOwnerName, FieldContactNumber, FieldNumberOfChambers, FieldYearEstablished}
	}
}

// Fields returns every field the variant projects, in projection order.
func (v Variant) Fields() []Field {
	extra := v.ExtraFields()
	out := make([]Field, 0, len(commonFields)+len(extra))
	out = append(out, commonFields...)
	return append(out, extra...)
}

// FilterCriteria holds the optional report filters. Empty State or City and
// nil dates mean "no predicate".
type FilterCriteria struct {
	State     string     `json:"state,omitempty"`
	City      string     `json:"city,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// Normalize trims surrounding whitespace from the text filters so that a
// blank value is treated as absent.
func (c FilterCriteria) Normalize() FilterCriteria {
	c.State = strings.TrimSpace(c.State)
	c.City = strings.TrimSpace(c.City)
	return c
}

// HasState reports whether a state predicate applies.
func (c FilterCriteria) HasState() bool { return strings.TrimSpace(c.State) != "" }

// HasCity reports whether a city predicate applies.
func (c FilterCriteria) HasCity() bool { return strings.TrimSpace(c.City) != "" }

// StorageRecord is one cold storage facility as shown in the report. It is the
// superset of both schema variants; fields a variant does not project keep
// their defaults.
type StorageRecord struct {
	ID             int64           `json:"id"`
	SurveyID       string          `json:"survey_id"`
	State          string          `json:"state"`
	District       string          `json:"district"`
	City           string          `json:"city"`
	Location       string          `json:"location"`
	ActualCapacity decimal.Decimal `json:"actual_capacity"`
	TotalArea      decimal.Decimal `json:"total_area"`
	QCStatus       string          `json:"qc_status"`
	QCDate         time.Time       `json:"qc_date"`
	Latitude       float64         `json:"latitude"`
	Longitude      float64         `json:"longitude"`

	// Registry variant.
	FacilityType     string `json:"facility_type"`
	OwnerName        string `json:"owner_name"`
	ContactNumber    string `json:"contact_number"`
	NumberOfChambers int64  `json:"number_of_chambers"`
	YearEstablished  string `json:"year_established"`

	// Utilization variant.
	UsedCapacity      decimal.Decimal `json:"used_capacity"`
	AvailableCapacity decimal.Decimal `json:"available_capacity"`
	Temperature       float64         `json:"temperature"`
}

// FacetSet holds the distinct, sorted, non-empty state and city values used
// to populate the filter dropdowns.
type FacetSet struct {
	States []string `json:"states"`
	Cities []string `json:"cities"`
}

// Report is everything the presentation layer needs for one request.
type Report struct {
	Criteria    FilterCriteria  `json:"filters"`
	Variant     Variant         `json:"variant"`
	Records     []StorageRecord `json:"records"`
	Facets      FacetSet        `json:"facets"`
	GeneratedAt time.Time       `json:"generated_at"`
}
