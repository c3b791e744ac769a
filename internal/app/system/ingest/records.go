// internal/app/system/ingest/records.go
package ingest

import (
	"github.com/dalemusser/cwcconnect/internal/app/system/normalize"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
)

// Row is one raw record: a spreadsheet row keyed by header, or one object
// from the roster API payload.
type Row = map[string]any

// Field aliases seen in roster API payloads, in priority order.
var (
	aliasOrganisationUnit = []string{"OrganisationUnit", "organisation_unit", "unit"}
	aliasName             = []string{"EmpName", "employee_name", "name", "EmployeeName"}
	aliasDesignation      = []string{"Designation", "designation", "role"}
	aliasEmail            = []string{"Email", "email", "emailId"}
	aliasFloor            = []string{"Floor", "floor", "location"}
	aliasRoomNumber       = []string{"RoomNo", "room_no", "roomNumber"}
	aliasLandline         = []string{"Landline", "landline", "phone"}
	aliasDepartment       = []string{"Department", "department", "dept"}
	aliasUnit             = []string{"Unit", "unit", "workUnit"}
	aliasMobile           = []string{"Mobile", "mobile", "mobileNumber", "phone_number"}
)

// wrapperKeys are checked, in order, when the payload is an object.
var wrapperKeys = []string{"data", "employees"}

// pick returns the first non-blank value among the aliases.
func pick(r Row, aliases []string) string {
	for _, k := range aliases {
		if v, ok := r[k]; ok {
			if s := normalize.Cell(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// NormalizeRecord maps one roster API record onto the canonical shape.
// Unresolved fields are empty. DataSource and LastUpdated are left for the
// caller to stamp.
func NormalizeRecord(r Row) models.Employee {
	return models.Employee{
		OrganisationUnit: pick(r, aliasOrganisationUnit),
		Name:             pick(r, aliasName),
		Designation:      pick(r, aliasDesignation),
		Email:            pick(r, aliasEmail),
		Floor:            pick(r, aliasFloor),
		RoomNumber:       pick(r, aliasRoomNumber),
		Landline:         pick(r, aliasLandline),
		Department:       pick(r, aliasDepartment),
		Unit:             pick(r, aliasUnit),
		Mobile:           pick(r, aliasMobile),
	}
}

// Unwrap extracts the record list from a decoded API payload. Arrays are
// used as-is; objects are searched for a known wrapper key and otherwise
// treated as a single record. Anything else yields no records. Array
// elements that are not objects are skipped.
func Unwrap(payload any) []Row {
	switch v := payload.(type) {
	case []any:
		return objects(v)
	case map[string]any:
		for _, k := range wrapperKeys {
			switch inner := v[k].(type) {
			case []any:
				return objects(inner)
			case map[string]any:
				return []Row{inner}
			}
		}
		return []Row{v}
	}
	return nil
}

func objects(items []any) []Row {
	out := make([]Row, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
