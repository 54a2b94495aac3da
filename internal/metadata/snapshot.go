package metadata

import "time"

// DisplayDateLayout is the normalized form of manufacturing and due dates.
const DisplayDateLayout = "02-01-06"

var isoLayouts = append([]string{time.RFC3339Nano}, naiveLayouts...)

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO parses the ISO-8601 date and datetime forms clients send.
// Values without a zone are read as UTC.
func ParseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseNaiveISO is ParseISO restricted to values without a zone. Zone
// qualified values are rejected.
func ParseNaiveISO(s string) (time.Time, bool) {
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate renders an ISO date as dd-mm-yy. Unparseable input is
// returned unchanged.
func NormalizeDate(s string) string {
	t, ok := ParseISO(s)
	if !ok {
		return s
	}
	return t.Format(DisplayDateLayout)
}

// FormatTimestamp is the timestamp representation embedded in snapshots.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

// ProductSnapshot is the founding snapshot stored for a new product.
func ProductSnapshot(name, description, serial, batch, manufacturingDate string, at time.Time) map[string]any {
	return map[string]any{
		"name":               name,
		"description":        description,
		"serial_number":      serial,
		"batch_id":           batch,
		"manufacturing_date": manufacturingDate,
		"timestamp":          FormatTimestamp(at),
		"type":               "product",
	}
}

// EventSnapshot is the snapshot stored for a custody event. previousCID is
// encoded as null when empty.
func EventSnapshot(productID, serial, batch, action, actor, role, location, notes, previousCID string, at time.Time) map[string]any {
	var prev any
	if previousCID != "" {
		prev = previousCID
	}
	return map[string]any{
		"product_id":    productID,
		"serial_number": serial,
		"batch_id":      batch,
		"action":        action,
		"actor":         actor,
		"role":          role,
		"location":      location,
		"notes":         notes,
		"timestamp":     FormatTimestamp(at),
		"previous_cid":  prev,
	}
}
