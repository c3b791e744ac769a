// internal/app/system/ingest/merge.go
package ingest

import (
	"github.com/dalemusser/cwcconnect/internal/app/system/normalize"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.uber.org/zap"
)

// Spreadsheet column headers.
const (
	colOrgUnit      = "Organisation Unit"
	colEmployeeName = "Employee Name"
	colName         = "Name"
	colDesignation  = "Designation"
	colEmail        = "E-mail"
	colPost         = "Post"

	colLocation      = "LOCN"
	colRoom          = "PABX"
	colOffice        = "OFFICE"
	colDirDesignaton = "DESIGNATION"
)

var (
	rosterKeys    = []string{"Mobile", "mobile"}
	directoryKeys = []string{"MOBILE", "mobile"}
)

// Exclusion reasons.
const (
	ReasonNoMatch    = "no directory match"
	ReasonNoLocation = "no location"
	ReasonNoRoom     = "no room"
)

// MergeReport tallies what happened to each roster row.
type MergeReport struct {
	RosterRows    int `json:"rosterRows"`
	DirectoryRows int `json:"directoryRows"`
	Merged        int `json:"merged"`
	NoMatch       int `json:"noMatch"`
	NoLocation    int `json:"noLocation"`
	NoRoom        int `json:"noRoom"`
}

// Excluded is the number of roster rows dropped.
func (r MergeReport) Excluded() int {
	return r.NoMatch + r.NoLocation + r.NoRoom
}

func rowKey(r Row, aliases []string) string {
	vals := make([]any, 0, len(aliases))
	for _, k := range aliases {
		vals = append(vals, r[k])
	}
	return normalize.FirstNonBlank(vals...)
}

// Merge joins roster rows to directory rows on the normalized mobile key.
// When several directory rows share a key the first one wins. A roster row
// is emitted only when its directory row has a non-blank location and room.
func Merge(roster, directory []Row, log *zap.Logger) ([]models.Employee, MergeReport) {
	if log == nil {
		log = zap.NewNop()
	}
	rep := MergeReport{RosterRows: len(roster), DirectoryRows: len(directory)}

	index := make(map[string]Row, len(directory))
	for _, d := range directory {
		k := rowKey(d, directoryKeys)
		if _, seen := index[k]; !seen {
			index[k] = d
		}
	}

	out := make([]models.Employee, 0, len(roster))
	for _, r := range roster {
		key := rowKey(r, rosterKeys)
		name := normalize.FirstNonBlank(r[colEmployeeName], r[colName])

		d, ok := index[key]
		if !ok {
			rep.NoMatch++
			log.Warn("merge excluded roster row", zap.String("reason", ReasonNoMatch),
				zap.String("name", name), zap.String("mobile", key))
			continue
		}
		floor := normalize.Cell(d[colLocation])
		if floor == "" {
			rep.NoLocation++
			log.Warn("merge excluded roster row", zap.String("reason", ReasonNoLocation),
				zap.String("name", name), zap.String("mobile", key))
			continue
		}
		room := normalize.Cell(d[colRoom])
		if room == "" {
			rep.NoRoom++
			log.Warn("merge excluded roster row", zap.String("reason", ReasonNoRoom),
				zap.String("name", name), zap.String("mobile", key))
			continue
		}

		mobile := key
		if mobile == "" {
			mobile = rowKey(d, directoryKeys)
		}
		out = append(out, models.Employee{
			OrganisationUnit: normalize.Cell(r[colOrgUnit]),
			Name:             name,
			Designation:      normalize.Cell(r[colDesignation]),
			Email:            normalize.Cell(r[colEmail]),
			Floor:            floor,
			RoomNumber:       room,
			Landline:         normalize.Cell(d[colOffice]),
			Department:       normalize.Cell(d[colDirDesignaton]),
			Unit:             normalize.Cell(r[colPost]),
			Mobile:           mobile,
		})
	}
	rep.Merged = len(out)

	log.Info("merged spreadsheet sources",
		zap.Int("roster_rows", rep.RosterRows),
		zap.Int("directory_rows", rep.DirectoryRows),
		zap.Int("merged", rep.Merged),
		zap.Int("excluded", rep.Excluded()))
	return out, rep
}
