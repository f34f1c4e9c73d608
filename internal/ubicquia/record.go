package ubicquia

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const (
	// MinFields is the smallest sub-field count a data row may carry.
	MinFields = 20
	// RowFields is the sub-field count every position in the table needs.
	RowFields = 32
)

var (
	// ErrMalformedRow is returned when a row's embedded payload has fewer than MinFields sub-fields.
	ErrMalformedRow = errors.New("ubicquia: malformed row")
	// ErrTruncatedRow is returned when a payload has MinFields or more sub-fields
	// but stops before the last mapped position.
	ErrTruncatedRow = errors.New("ubicquia: truncated row")
	// ErrMissingDeviceID is returned when a row has no device identifier.
	ErrMissingDeviceID = errors.New("ubicquia: missing device id")
)

// Field names a positional value of the export.
type Field int

const (
	FieldTimestamp Field = iota
	FieldAlertType
	FieldAlertValue
	FieldBurnHours
	FieldDeviceID
	FieldFirmware
	FieldInstallDate
	FieldLatitude
	FieldLightStatus
	FieldLongitude
	FieldNetworkType
	FieldNodeName
	FieldNodeStatus
	FieldUtility
	FieldTimezone
	FieldTags

	fieldCount
)

// positions maps every field to its zero-based index in the re-split payload.
var positions = [fieldCount]int{
	FieldTimestamp:   1,
	FieldAlertType:   2,
	FieldAlertValue:  3,
	FieldBurnHours:   5,
	FieldDeviceID:    6,
	FieldFirmware:    14,
	FieldInstallDate: 17,
	FieldLatitude:    18,
	FieldLightStatus: 19,
	FieldLongitude:   20,
	FieldNetworkType: 22,
	FieldNodeName:    23,
	FieldNodeStatus:  24,
	FieldUtility:     28,
	FieldTimezone:    29,
	FieldTags:        31,
}

// Fields is a re-tokenized payload: cleaned optional values in export order.
type Fields []sql.NullString

// Tokenize re-splits an embedded comma payload and cleans every sub-field.
func Tokenize(payload string) (Fields, error) {
	parts := strings.Split(payload, ",")
	if len(parts) < MinFields {
		return nil, ErrMalformedRow
	}
	if len(parts) < RowFields {
		return nil, fmt.Errorf("%w: %d of %d sub-fields", ErrTruncatedRow, len(parts), RowFields)
	}
	fields := make(Fields, len(parts))
	for i, part := range parts {
		fields[i] = Clean(part)
	}
	return fields, nil
}

// Record is one extracted export row.
type Record struct {
	values [fieldCount]sql.NullString
}

// Get returns the value of a field.
func (r Record) Get(field Field) sql.NullString {
	if field < 0 || field >= fieldCount {
		return sql.NullString{}
	}
	return r.values[field]
}

// DeviceID returns the device identifier.
func (r Record) DeviceID() string {
	return r.values[FieldDeviceID].String
}

// Extract decomposes an outer CSV record. The vendor export packs the real
// columns into the first outer field, so that field is re-tokenized.
func Extract(outer []string) (Record, error) {
	payload := ""
	if len(outer) > 0 {
		payload = outer[0]
	}
	fields, err := Tokenize(payload)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	for field, idx := range positions {
		rec.values[field] = fields[idx]
	}
	if !rec.values[FieldDeviceID].Valid || rec.values[FieldDeviceID].String == "" {
		return Record{}, ErrMissingDeviceID
	}
	return rec, nil
}
