package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// Employee builds an eligible record with sensible defaults. The caller may
// override any field before inserting.
func Employee(name, designation, mobile string) models.Employee {
	return models.Employee{
		Name:             name,
		Designation:      designation,
		Mobile:           mobile,
		OrganisationUnit: "Central Water Commission",
		Email:            "",
		Floor:            "3rd Floor",
		RoomNumber:       "301",
		Landline:         "26100001",
		Department:       "WP&P",
		LastUpdated:      time.Now().UTC().Truncate(time.Millisecond),
		DataSource:       models.DataSourceExcel,
	}
}

// CreateEmployee inserts e directly, bypassing the upsert path, and returns it
// with its generated ID.
func (f *Fixtures) CreateEmployee(ctx context.Context, e models.Employee) models.Employee {
	f.t.Helper()

	now := time.Now().UTC()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.LastUpdated.IsZero() {
		e.LastUpdated = now
	}

	if _, err := f.db.Collection("employees").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test employee: %v", err)
	}
	return e
}
