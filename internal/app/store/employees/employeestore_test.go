package employeestore_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	employeestore "github.com/dalemusser/cwcconnect/internal/app/store/employees"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"github.com/dalemusser/cwcconnect/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_Upsert_InsertThenModify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employeestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := testutil.Employee("Jane Doe", "Director", "555")
	e.LastUpdated = time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	out, err := store.Upsert(ctx, e)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if out != employeestore.OutcomeInserted {
		t.Errorf("first upsert: got %v, want inserted", out)
	}

	e.Designation = "Chief Engineer"
	e.LastUpdated = time.Now().UTC().Truncate(time.Millisecond)
	out, err = store.Upsert(ctx, e)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if out != employeestore.OutcomeModified {
		t.Errorf("second upsert: got %v, want modified", out)
	}

	n, err := db.Collection("employees").CountDocuments(ctx, bson.M{"mobile": "555"})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one document for mobile 555, got %d", n)
	}

	got, err := store.GetByMobile(ctx, "555")
	if err != nil {
		t.Fatalf("GetByMobile failed: %v", err)
	}
	if got.Designation != "Chief Engineer" {
		t.Errorf("Designation: got %q, want overwritten value", got.Designation)
	}
	if !got.LastUpdated.Equal(e.LastUpdated) {
		t.Errorf("LastUpdated: got %v, want %v", got.LastUpdated, e.LastUpdated)
	}
}

func TestStore_Upsert_RequiresMobile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employeestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Upsert(ctx, testutil.Employee("No Key", "", "   "))
	if err != employeestore.ErrMissingMobile {
		t.Errorf("expected ErrMissingMobile, got %v", err)
	}
}

func TestStore_ListEligible_FiltersAndRedacts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employeestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateEmployee(ctx, testutil.Employee("Visible One", "Director", "1"))

	noFloor := testutil.Employee("No Floor", "Director", "2")
	noFloor.Floor = ""
	fx.CreateEmployee(ctx, noFloor)

	blankRoom := testutil.Employee("Blank Room", "Director", "3")
	blankRoom.RoomNumber = "   "
	fx.CreateEmployee(ctx, blankRoom)

	list, err := store.ListEligible(ctx)
	if err != nil {
		t.Fatalf("ListEligible failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 eligible record, got %d", len(list))
	}
	if list[0].Name != "Visible One" {
		t.Errorf("unexpected record %q", list[0].Name)
	}
	if list[0].Mobile != "" || list[0].Department != "" {
		t.Errorf("private fields leaked: mobile=%q department=%q", list[0].Mobile, list[0].Department)
	}

	b, _ := json.Marshal(list[0].View())
	if strings.Contains(string(b), "mobile") || strings.Contains(string(b), "department") {
		t.Errorf("serialized view contains private fields: %s", b)
	}
}

func TestStore_FindEligible(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employeestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateEmployee(ctx, testutil.Employee("Alpha", "DIRECTOR", "1"))
	fx.CreateEmployee(ctx, testutil.Employee("Beta", "DEPUTY DIRECTOR", "2"))
	fx.CreateEmployee(ctx, testutil.Employee("Gamma (Acting)", "Engineer", "3"))

	tests := []struct {
		name    string
		matches []employeestore.Match
		want    []string
	}{
		{
			name:    "anchored excludes deputy",
			matches: []employeestore.Match{{Field: employeestore.FieldDesignation, Pattern: "director", Anchored: true}},
			want:    []string{"Alpha"},
		},
		{
			name:    "unanchored finds both",
			matches: []employeestore.Match{{Field: employeestore.FieldDesignation, Pattern: "director"}},
			want:    []string{"Alpha", "Beta"},
		},
		{
			name:    "metacharacters are literal",
			matches: []employeestore.Match{{Field: employeestore.FieldName, Pattern: "(acting)"}},
			want:    []string{"Gamma (Acting)"},
		},
		{
			name: "or across fields",
			matches: []employeestore.Match{
				{Field: employeestore.FieldName, Pattern: "beta"},
				{Field: employeestore.FieldOrganisationUnit, Pattern: "nothing here"},
			},
			want: []string{"Beta"},
		},
		{
			name:    "no matches given",
			matches: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindEligible(ctx, tt.matches...)
			if err != nil {
				t.Fatalf("FindEligible failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Name != tt.want[i] {
					t.Errorf("record %d: got %q, want %q", i, e.Name, tt.want[i])
				}
			}
		})
	}
}

func TestStore_SourceStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := employeestore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(6 * time.Hour)

	a := testutil.Employee("A", "", "1")
	a.LastUpdated = older
	fx.CreateEmployee(ctx, a)
	b := testutil.Employee("B", "", "2")
	b.LastUpdated = newer
	fx.CreateEmployee(ctx, b)

	stat, err := store.SourceStats(ctx, models.DataSourceExcel)
	if err != nil {
		t.Fatalf("SourceStats failed: %v", err)
	}
	if stat.Count != 2 {
		t.Errorf("Count: got %d, want 2", stat.Count)
	}
	if stat.LastUpdate == nil || !stat.LastUpdate.Equal(newer) {
		t.Errorf("LastUpdate: got %v, want %v", stat.LastUpdate, newer)
	}

	api, err := store.SourceStats(ctx, models.DataSourceAPI)
	if err != nil {
		t.Fatalf("SourceStats(API) failed: %v", err)
	}
	if api.Count != 0 || api.LastUpdate != nil {
		t.Errorf("expected empty API stats, got %+v", api)
	}

	total, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 2 {
		t.Errorf("Count: got %d, want 2", total)
	}
}

func TestMatch_Test(t *testing.T) {
	e := models.Employee{Name: "Jane Doeherty", Designation: "DEPUTY DIRECTOR", OrganisationUnit: "RM Wing"}

	tests := []struct {
		name string
		m    employeestore.Match
		want bool
	}{
		{"substring name", employeestore.Match{Field: employeestore.FieldName, Pattern: "jane doe"}, true},
		{"anchored name", employeestore.Match{Field: employeestore.FieldName, Pattern: "jane doe", Anchored: true}, false},
		{"anchored designation", employeestore.Match{Field: employeestore.FieldDesignation, Pattern: "deputy director", Anchored: true}, true},
		{"org unit", employeestore.Match{Field: employeestore.FieldOrganisationUnit, Pattern: "rm"}, true},
		{"dot is literal", employeestore.Match{Field: employeestore.FieldName, Pattern: "j.ne"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Test(e); got != tt.want {
				t.Errorf("Test() = %v, want %v", got, tt.want)
			}
		})
	}
}
