// internal/domain/models/employee.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DataSource records which feed produced the stored values of an employee.
type DataSource string

const (
	DataSourceExcel DataSource = "Excel"
	DataSourceAPI   DataSource = "API"
)

// Employee is the canonical, persisted directory record.
//
// Mobile is the unique key and Department is kept for reference only; both are
// excluded from JSON so no read path can leak them by accident.
type Employee struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrganisationUnit string             `bson:"organisation_unit" json:"organisationUnit"`
	Name             string             `bson:"name" json:"name"`
	Designation      string             `bson:"designation" json:"designation"`
	Email            string             `bson:"email" json:"email"`
	Floor            string             `bson:"floor" json:"floor"`
	RoomNumber       string             `bson:"room_number" json:"roomNumber"`
	Landline         string             `bson:"landline" json:"landline"`
	Department       string             `bson:"department,omitempty" json:"-"`
	Unit             string             `bson:"unit" json:"unit"`
	Mobile           string             `bson:"mobile,omitempty" json:"-"`
	LastUpdated      time.Time          `bson:"last_updated" json:"lastUpdated"`
	DataSource       DataSource         `bson:"data_source" json:"dataSource"`
	CreatedAt        time.Time          `bson:"created_at,omitempty" json:"-"`
	UpdatedAt        time.Time          `bson:"updated_at,omitempty" json:"-"`
}

// DirectoryEligible reports whether the record has both a floor and a room
// number. Only eligible records are ever shown outside the service.
func (e Employee) DirectoryEligible() bool {
	return strings.TrimSpace(e.Floor) != "" && strings.TrimSpace(e.RoomNumber) != ""
}

// EmployeeView is the public projection of an Employee returned by the read APIs.
type EmployeeView struct {
	ID               string     `json:"id"`
	OrganisationUnit string     `json:"organisationUnit"`
	Name             string     `json:"name"`
	Designation      string     `json:"designation"`
	Email            string     `json:"email"`
	Floor            string     `json:"floor"`
	RoomNumber       string     `json:"roomNumber"`
	Landline         string     `json:"landline"`
	Unit             string     `json:"unit"`
	LastUpdated      time.Time  `json:"lastUpdated"`
	DataSource       DataSource `json:"dataSource"`
}

// View strips the private fields from e.
func (e Employee) View() EmployeeView {
	v := EmployeeView{
		OrganisationUnit: e.OrganisationUnit,
		Name:             e.Name,
		Designation:      e.Designation,
		Email:            e.Email,
		Floor:            e.Floor,
		RoomNumber:       e.RoomNumber,
		Landline:         e.Landline,
		Unit:             e.Unit,
		LastUpdated:      e.LastUpdated,
		DataSource:       e.DataSource,
	}
	if !e.ID.IsZero() {
		v.ID = e.ID.Hex()
	}
	return v
}
