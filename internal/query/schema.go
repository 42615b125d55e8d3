package query

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/coldstorage-report/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultTable is the survey export table.
const DefaultTable = "Cold_Storage"

// Columns maps semantic fields to the physical column names of the source
// table. The survey export names its columns after the question text, so the
// defaults are long and contain punctuation. An empty optional column makes
// the builder project a literal default instead.
type Columns struct {
	SurveyID        string `yaml:"survey_id"`
	State           string `yaml:"state"`
	City            string `yaml:"city"`
	Address         string `yaml:"address,omitempty"`
	Capacity        string `yaml:"capacity"`
	Area            string `yaml:"area"`
	QCStatus        string `yaml:"qc_status"`
	QCDate          string `yaml:"qc_date"`
	ObservationDate string `yaml:"observation_date,omitempty"`
	Latitude        string `yaml:"latitude"`
	Longitude       string `yaml:"longitude"`

	FacilityType    string `yaml:"facility_type,omitempty"`
	OwnerName       string `yaml:"owner_name,omitempty"`
	ContactNumber   string `yaml:"contact_number,omitempty"`
	Chambers        string `yaml:"chambers,omitempty"`
	YearEstablished string `yaml:"year_established,omitempty"`

	UsedCapacity      string `yaml:"used_capacity,omitempty"`
	AvailableCapacity string `yaml:"available_capacity,omitempty"`
	Temperature       string `yaml:"temperature,omitempty"`
}

// Schema describes the source table.
type Schema struct {
	Table   string  `yaml:"table"`
	Columns Columns `yaml:"columns"`
}

// DefaultSchema returns the mapping for the survey export as deployed.
func DefaultSchema() Schema {
	return Schema{
		Table: DefaultTable,
		Columns: Columns{
			SurveyID:        "Survey ID",
			State:           "State",
			City:            "City",
			Capacity:        "What is the actual capacity of your facility (in metric tonnes)?",
			Area:            "What is the total area of this facility (in sq# mt)",
			QCStatus:        "QC Status",
			QCDate:          "QC Date",
			ObservationDate: "Observation Date",
			Latitude:        "Latitude",
			Longitude:       "Longitude",
		},
	}
}

// LoadSchema overlays the YAML column map at path onto base. Keys missing
// from the file keep the value from base. An empty path returns base as is.
func LoadSchema(path string, base Schema) (Schema, error) {
	if path == "" {
		return base, base.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("read column map: %w", err)
	}

	s := base
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Schema{}, fmt.Errorf("parse column map %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Schema{}, fmt.Errorf("column map %s: %w", path, err)
	}
	return s, nil
}

// Validate checks that the table and every required column are named.
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Table) == "" {
		return errors.New("table is required")
	}
	required := []struct {
		key, value string
	}{
		{"survey_id", s.Columns.SurveyID},
		{"state", s.Columns.State},
		{"city", s.Columns.City},
		{"capacity", s.Columns.Capacity},
		{"area", s.Columns.Area},
		{"qc_status", s.Columns.QCStatus},
		{"qc_date", s.Columns.QCDate},
		{"latitude", s.Columns.Latitude},
		{"longitude", s.Columns.Longitude},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Mapped returns the physical column behind each field that reads from the
// table, including the observation date fallback. Fields projected as
// literals are left out.
func (s Schema) Mapped() map[string]string {
	c := s.Columns
	all := map[string]string{
		string(domain.FieldSurveyID):          c.SurveyID,
		string(domain.FieldState):             c.State,
		string(domain.FieldCity):              c.City,
		string(domain.FieldLocation):          c.Address,
		string(domain.FieldActualCapacity):    c.Capacity,
		string(domain.FieldTotalArea):         c.Area,
		string(domain.FieldQCStatus):          c.QCStatus,
		string(domain.FieldQCDate):            c.QCDate,
		"ObservationDate":                     c.ObservationDate,
		string(domain.FieldLatitude):          c.Latitude,
		string(domain.FieldLongitude):         c.Longitude,
		string(domain.FieldFacilityType):      c.FacilityType,
		string(domain.FieldOwnerName):         c.OwnerName,
		string(domain.FieldContactNumber):     c.ContactNumber,
		string(domain.FieldNumberOfChambers):  c.Chambers,
		string(domain.FieldYearEstablished):   c.YearEstablished,
		string(domain.FieldUsedCapacity):      c.UsedCapacity,
		string(domain.FieldAvailableCapacity): c.AvailableCapacity,
		string(domain.FieldTemperature):       c.Temperature,
	}
	out := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
