package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"github.com/dalemusser/cwcconnect/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func directory() *testutil.MemStore {
	hidden := testutil.Employee("Hidden Person", "Director", "9000000009")
	hidden.RoomNumber = ""
	return testutil.NewMemStore(
		testutil.Employee("Jane Doeherty", "Assistant Director", "9000000001"),
		testutil.Employee("Jane Doe", "Director", "9000000002"),
		testutil.Employee("Ravi Kumar", "Deputy Director", "9000000003"),
		testutil.Employee("Asha Singh", "Engineer", "9000000004"),
		testutil.Employee("Mohan Lal", "Assistant Engineer", "9000000005"),
		hidden,
	)
}

func names(recs []models.Employee) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func TestRegexExtractor(t *testing.T) {
	tests := []struct {
		in          string
		names       []string
		designation string
	}{
		{"Where is Jane Doe", []string{"Where", "Jane Doe"}, ""},
		{"who is the DIRECTOR", nil, "director"},
		{"Chief Engineer room", []string{"Chief Engineer"}, "chief"},
		{"  spaced  ", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RegexExtractor{}.Extract(tt.in)
			assert.Equal(t, tt.names, got.Names)
			assert.Equal(t, tt.designation, got.Designation)
		})
	}

	got := RegexExtractor{}.Extract("  Jane DOE ")
	assert.Equal(t, "Jane DOE", got.Trimmed)
	assert.Equal(t, "  jane doe ", got.Lower)
}

func TestMatch_ExactDesignation(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	res, tier, err := m.MatchTier(context.Background(), "director")
	require.NoError(t, err)
	assert.Equal(t, TierExactDesignation, tier)
	assert.Equal(t, []string{"Jane Doe"}, names(res))

	res, tier, err = m.MatchTier(context.Background(), "DEPUTY DIRECTOR")
	require.NoError(t, err)
	assert.Equal(t, TierExactDesignation, tier)
	assert.Equal(t, []string{"Ravi Kumar"}, names(res))
}

func TestMatch_ExactDesignationFallsThrough(t *testing.T) {
	store := testutil.NewMemStore(testutil.Employee("Vikram Director", "Chairman", "9000000010"))
	m := New(store, mongoconn.Static(true), nil, nil)

	res, tier, err := m.MatchTier(context.Background(), "director")
	require.NoError(t, err)
	assert.Equal(t, TierFullName, tier)
	assert.Equal(t, []string{"Vikram Director"}, names(res))
}

func TestMatch_FullNameIsExact(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	res, tier, err := m.MatchTier(context.Background(), "  jane doe ")
	require.NoError(t, err)
	assert.Equal(t, TierFullName, tier)
	assert.Equal(t, []string{"Jane Doe"}, names(res))
}

func TestMatch_NameCandidatesAccumulate(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	res, tier, err := m.MatchTier(context.Background(), "Where do Jane Doe and Ravi sit")
	require.NoError(t, err)
	assert.Equal(t, TierNameCandidates, tier)
	assert.Equal(t, []string{"Jane Doeherty", "Jane Doe", "Ravi Kumar"}, names(res))
}

func TestMatch_DesignationKeywordIsAnchored(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	res, tier, err := m.MatchTier(context.Background(), "engineer")
	require.NoError(t, err)
	assert.Equal(t, TierDesignationKeyword, tier)
	assert.Equal(t, []string{"Asha Singh"}, names(res))
}

func TestMatch_FreeTextOnOrganisationUnit(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	res, tier, err := m.MatchTier(context.Background(), "water commission")
	require.NoError(t, err)
	assert.Equal(t, TierFreeText, tier)
	assert.Len(t, res, 5)
	assert.NotContains(t, names(res), "Hidden Person")
}

func TestMatch_NoMatchIsEmpty(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	for _, q := range []string{"xyz unknown", "a.*(", "", "   "} {
		res, err := m.Match(context.Background(), q)
		require.NoError(t, err, q)
		assert.Empty(t, res, q)
	}
}

func TestMatch_NeverReturnsIneligibleOrPrivate(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), nil, nil)

	res, err := m.Match(context.Background(), "Hidden Person")
	require.NoError(t, err)
	assert.Empty(t, res)

	res, err = m.Match(context.Background(), "Jane")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	for _, r := range res {
		assert.Empty(t, r.Mobile)
		assert.Empty(t, r.Department)
	}
}

func TestMatch_StoreUnavailable(t *testing.T) {
	store := directory()
	m := New(store, mongoconn.Static(false), nil, nil)

	_, err := m.Match(context.Background(), "Jane Doe")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Zero(t, store.Calls)
}

func TestMatch_StoreError(t *testing.T) {
	store := directory()
	store.Fail = true
	m := New(store, mongoconn.Static(true), nil, nil)

	_, err := m.Match(context.Background(), "Jane Doe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, testutil.ErrInjected))
	assert.False(t, errors.Is(err, ErrStoreUnavailable))
}

type fixedExtractor Entities

func (f fixedExtractor) Extract(string) Entities { return Entities(f) }

func TestMatch_CustomExtractor(t *testing.T) {
	m := New(directory(), mongoconn.Static(true), fixedExtractor{Names: []string{"Asha"}}, nil)

	res, tier, err := m.MatchTier(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, TierNameCandidates, tier)
	assert.Equal(t, []string{"Asha Singh"}, names(res))
}

func TestRank(t *testing.T) {
	id := primitive.NewObjectID()
	doeherty := testutil.Employee("Jane Doeherty", "Director", "1")
	doeherty.ID = primitive.NewObjectID()
	doe := testutil.Employee("Jane Doe", "Director", "2")
	doe.ID = id
	dup := doe
	noRoom := testutil.Employee("Jane Doe", "Director", "3")
	noRoom.Floor = " "

	got := rank([]models.Employee{doeherty, doe, dup, noRoom}, "JANE DOE")
	assert.Equal(t, []string{"Jane Doe", "Jane Doeherty"}, names(got))
	assert.Equal(t, id, got[0].ID)
	assert.Empty(t, got[0].Mobile)
}

func TestRank_IdentityWithoutID(t *testing.T) {
	a := testutil.Employee("Asha Singh", "Engineer", "1")
	b := testutil.Employee("Asha Singh", "Engineer", "2")
	c := testutil.Employee("Asha Singh", "Engineer", "3")
	c.RoomNumber = "302"

	got := rank([]models.Employee{a, b, c}, "")
	assert.Len(t, got, 2)
}
