package directory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/cwcconnect/internal/app/system/matcher"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"github.com/dalemusser/cwcconnect/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAugmenter struct {
	reply string
	err   error
	calls int
}

func (s *stubAugmenter) Name() string { return "stub" }

func (s *stubAugmenter) Rephrase(_ context.Context, _, _ string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func seeded() *testutil.MemStore {
	blank := testutil.Employee("Blank Room", "Engineer", "9000000007")
	blank.RoomNumber = "   "
	return testutil.NewMemStore(
		testutil.Employee("Jane Doe", "DIRECTOR", "9000000001"),
		testutil.Employee("Jane Doeherty", "DEPUTY DIRECTOR", "9000000002"),
		blank,
	)
}

func newService(store *testutil.MemStore, avail bool, aug *stubAugmenter) *Service {
	a := mongoconn.Static(avail)
	m := matcher.New(store, a, nil, nil)
	if aug == nil {
		return New(store, m, a, nil, nil, nil)
	}
	return New(store, m, a, aug, nil, nil)
}

func TestListDirectory_EligibleAndRedacted(t *testing.T) {
	svc := newService(seeded(), true, nil)

	views, err := svc.ListDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)

	raw, err := json.Marshal(views)
	require.NoError(t, err)
	body := string(raw)
	assert.NotContains(t, body, "mobile")
	assert.NotContains(t, body, "department")
	assert.NotContains(t, body, "9000000001")
	assert.NotContains(t, body, "Blank Room")
	assert.NotEmpty(t, views[0].ID)
}

func TestListDirectory_StoreUnavailable(t *testing.T) {
	store := seeded()
	svc := newService(store, false, nil)

	_, err := svc.ListDirectory(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Zero(t, store.Calls)
}

func TestListDirectory_StoreError(t *testing.T) {
	store := seeded()
	store.Fail = true
	svc := newService(store, true, nil)

	_, err := svc.ListDirectory(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, testutil.ErrInjected))
}

func TestAnswerQuery_DirectorExcludesDeputy(t *testing.T) {
	svc := newService(seeded(), true, nil)

	ans := svc.AnswerQuery(context.Background(), "director")
	assert.True(t, ans.StoreAvailable)
	assert.Equal(t, 1, ans.MatchCount)
	assert.Contains(t, ans.Reply, "1. Jane Doe\n")
	assert.NotContains(t, ans.Reply, "Doeherty")
}

func TestAnswerQuery_NoMatch(t *testing.T) {
	svc := newService(seeded(), true, nil)

	ans := svc.AnswerQuery(context.Background(), "nobody here")
	assert.True(t, ans.StoreAvailable)
	assert.Zero(t, ans.MatchCount)
	assert.Equal(t, NoMatchReply("nobody here"), ans.Reply)
	assert.Contains(t, ans.Reply, `matching "nobody here"`)
}

func TestAnswerQuery_StoreUnavailable(t *testing.T) {
	store := seeded()
	aug := &stubAugmenter{reply: "never"}
	svc := newService(store, false, aug)

	ans := svc.AnswerQuery(context.Background(), "Jane Doe")
	assert.False(t, ans.StoreAvailable)
	assert.Zero(t, ans.MatchCount)
	assert.Equal(t, UnavailableReply(), ans.Reply)
	assert.Zero(t, store.Calls)
	assert.Zero(t, aug.calls)
}

func TestAnswerQuery_StoreErrorDegrades(t *testing.T) {
	store := seeded()
	store.Fail = true
	svc := newService(store, true, nil)

	ans := svc.AnswerQuery(context.Background(), "Jane Doe")
	assert.False(t, ans.StoreAvailable)
	assert.Equal(t, UnavailableReply(), ans.Reply)
}

func TestAnswerQuery_Augmentation(t *testing.T) {
	aug := &stubAugmenter{reply: "Jane Doe is the Director."}
	svc := newService(seeded(), true, aug)

	ans := svc.AnswerQuery(context.Background(), "Jane Doe")
	assert.Equal(t, "Jane Doe is the Director.", ans.Reply)
	assert.Equal(t, 1, ans.MatchCount)
	assert.Equal(t, 1, aug.calls)
}

func TestAnswerQuery_AugmentationFailureKeepsSummary(t *testing.T) {
	aug := &stubAugmenter{err: errors.New("model offline")}
	svc := newService(seeded(), true, aug)

	ans := svc.AnswerQuery(context.Background(), "Jane Doe")
	assert.True(t, strings.HasPrefix(ans.Reply, "Found 1 employee(s):"))
	assert.Equal(t, 1, aug.calls)
}

func TestAnswerQuery_NoAugmentationWithoutMatches(t *testing.T) {
	aug := &stubAugmenter{reply: "never"}
	svc := newService(seeded(), true, aug)

	svc.AnswerQuery(context.Background(), "nobody here")
	assert.Zero(t, aug.calls)
}

func TestFormatSummary(t *testing.T) {
	assert.Equal(t, "No employees found matching your query.", FormatSummary(nil))

	e := models.Employee{
		Name:             "Jane Doe",
		OrganisationUnit: "Central Water Commission",
		Floor:            "3rd Floor",
		RoomNumber:       "301",
		Email:            "jane@example.org",
		Landline:         " ",
		Department:       "WP&P",
		Mobile:           "9000000001",
	}
	want := "Found 1 employee(s):\n\n" +
		"1. Jane Doe\n" +
		"   Designation: Not specified\n" +
		"   Unit: Central Water Commission\n" +
		"   Location: 3rd Floor\n" +
		"   Room/Ext: 301\n" +
		"   Email: jane@example.org\n" +
		"\n"
	assert.Equal(t, want, FormatSummary([]models.Employee{e}))
}
