// internal/app/store/employees/employeestore.go
package employeestore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the single collection this service owns.
const CollectionName = "employees"

// ErrMissingMobile is returned when a record without a key reaches Upsert.
var ErrMissingMobile = errors.New("employee has no mobile key")

// Searchable fields.
const (
	FieldName             = "name"
	FieldDesignation      = "designation"
	FieldOrganisationUnit = "organisation_unit"
)

// Outcome describes what an upsert did to the stored document.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeInserted
	OutcomeModified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeModified:
		return "modified"
	default:
		return "unchanged"
	}
}

// Match is one case-insensitive text condition on a searchable field.
// Anchored matches the whole field value; otherwise Pattern may appear
// anywhere. Pattern is literal text, never a regular expression.
type Match struct {
	Field    string
	Pattern  string
	Anchored bool
}

func (m Match) expr() string {
	p := regexp.QuoteMeta(m.Pattern)
	if m.Anchored {
		return "^" + p + "$"
	}
	return p
}

// Regex returns the Mongo regex for this match.
func (m Match) Regex() primitive.Regex {
	return primitive.Regex{Pattern: m.expr(), Options: "i"}
}

// Test evaluates the match against an in-memory record with the same
// semantics as the store query.
func (m Match) Test(e models.Employee) bool {
	re, err := regexp.Compile("(?i)" + m.expr())
	if err != nil {
		return false
	}
	return re.MatchString(fieldValue(e, m.Field))
}

func fieldValue(e models.Employee, field string) string {
	switch field {
	case FieldName:
		return e.Name
	case FieldDesignation:
		return e.Designation
	case FieldOrganisationUnit:
		return e.OrganisationUnit
	}
	return ""
}

// eligibleFilter keeps records whose floor and room number each contain at
// least one non-whitespace character. Missing fields never match.
func eligibleFilter() bson.M {
	nonBlank := primitive.Regex{Pattern: `\S`}
	return bson.M{
		"floor":       bson.M{"$regex": nonBlank},
		"room_number": bson.M{"$regex": nonBlank},
	}
}

// publicProjection strips fields that are never returned to callers.
var publicProjection = bson.M{"mobile": 0, "department": 0}

// Store provides access to the employees collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new employee store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Upsert writes e keyed on its mobile number. Every stored field is
// overwritten; created_at is only set on insert.
func (s *Store) Upsert(ctx context.Context, e models.Employee) (Outcome, error) {
	mobile := strings.TrimSpace(e.Mobile)
	if mobile == "" {
		return OutcomeUnchanged, ErrMissingMobile
	}
	now := time.Now().UTC()
	lastUpdated := e.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = now
	}

	filter := bson.M{"mobile": mobile}
	update := bson.M{
		"$set": bson.M{
			"organisation_unit": e.OrganisationUnit,
			"name":              e.Name,
			"designation":       e.Designation,
			"email":             e.Email,
			"floor":             e.Floor,
			"room_number":       e.RoomNumber,
			"landline":          e.Landline,
			"department":        e.Department,
			"unit":              e.Unit,
			"mobile":            mobile,
			"last_updated":      lastUpdated,
			"data_source":       e.DataSource,
			"updated_at":        now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}

	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return OutcomeUnchanged, err
	}
	switch {
	case res.UpsertedCount > 0:
		return OutcomeInserted, nil
	case res.ModifiedCount > 0:
		return OutcomeModified, nil
	}
	return OutcomeUnchanged, nil
}

// ListEligible returns every directory-eligible record in store order.
func (s *Store) ListEligible(ctx context.Context) ([]models.Employee, error) {
	return s.find(ctx, eligibleFilter())
}

// FindEligible returns directory-eligible records satisfying any of the
// given matches. With no matches it returns nothing.
func (s *Store) FindEligible(ctx context.Context, matches ...Match) ([]models.Employee, error) {
	if len(matches) == 0 {
		return nil, nil
	}
	or := make(bson.A, 0, len(matches))
	for _, m := range matches {
		or = append(or, bson.M{m.Field: bson.M{"$regex": m.Regex()}})
	}
	filter := eligibleFilter()
	filter["$or"] = or
	return s.find(ctx, filter)
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Employee, error) {
	opts := options.Find().
		SetProjection(publicProjection).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Employee
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of stored records, eligible or not.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// SourceStat summarizes the records written from one data source.
type SourceStat struct {
	Count      int64
	LastUpdate *time.Time
}

// SourceStats returns the record count and most recent last_updated for src.
func (s *Store) SourceStats(ctx context.Context, src models.DataSource) (SourceStat, error) {
	filter := bson.M{"data_source": src}
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return SourceStat{}, err
	}
	stat := SourceStat{Count: n}
	if n == 0 {
		return stat, nil
	}

	var latest struct {
		LastUpdated time.Time `bson:"last_updated"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "last_updated", Value: -1}}).
		SetProjection(bson.M{"last_updated": 1})
	err = s.c.FindOne(ctx, filter, opts).Decode(&latest)
	if err == mongo.ErrNoDocuments {
		return stat, nil
	}
	if err != nil {
		return SourceStat{}, err
	}
	t := latest.LastUpdated.UTC()
	stat.LastUpdate = &t
	return stat, nil
}

// GetByMobile loads the full stored record, private fields included.
// Only sync tooling uses it.
func (s *Store) GetByMobile(ctx context.Context, mobile string) (models.Employee, error) {
	var e models.Employee
	err := s.c.FindOne(ctx, bson.M{"mobile": strings.TrimSpace(mobile)}).Decode(&e)
	return e, err
}
