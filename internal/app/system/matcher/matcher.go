// internal/app/system/matcher/matcher.go
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	employeestore "github.com/dalemusser/cwcconnect/internal/app/store/employees"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.uber.org/zap"
)

// ErrStoreUnavailable means no query was attempted because the store is down.
// It is distinct from an empty result.
var ErrStoreUnavailable = errors.New("employee store unavailable")

// exactDesignations are whole-query phrases answered by an anchored
// designation lookup before any name matching.
var exactDesignations = map[string]bool{
	"director":        true,
	"deputy director": true,
}

// Finder runs OR-ed text matches restricted to directory-eligible records.
type Finder interface {
	FindEligible(ctx context.Context, matches ...employeestore.Match) ([]models.Employee, error)
}

// Tier identifies which search level produced the results.
type Tier int

const (
	TierNone Tier = iota
	TierExactDesignation
	TierFullName
	TierNameCandidates
	TierDesignationKeyword
	TierFreeText
)

func (t Tier) String() string {
	switch t {
	case TierExactDesignation:
		return "exact_designation"
	case TierFullName:
		return "full_name"
	case TierNameCandidates:
		return "name_candidates"
	case TierDesignationKeyword:
		return "designation_keyword"
	case TierFreeText:
		return "free_text"
	}
	return "none"
}

// Matcher runs the layered search.
type Matcher struct {
	store     Finder
	avail     mongoconn.Availability
	extractor Extractor
	log       *zap.Logger
}

// New builds a Matcher. A nil extractor uses RegexExtractor.
func New(store Finder, avail mongoconn.Availability, extractor Extractor, logger *zap.Logger) *Matcher {
	if extractor == nil {
		extractor = RegexExtractor{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{store: store, avail: avail, extractor: extractor, log: logger}
}

// Match returns ranked directory-eligible records for question. No match is
// an empty slice and a nil error. ErrStoreUnavailable is returned without
// querying when the availability flag is down.
func (m *Matcher) Match(ctx context.Context, question string) ([]models.Employee, error) {
	res, _, err := m.MatchTier(ctx, question)
	return res, err
}

// MatchTier is Match that also reports the tier that produced the results.
func (m *Matcher) MatchTier(ctx context.Context, question string) ([]models.Employee, Tier, error) {
	if m.avail != nil && !m.avail.IsAvailable() {
		return nil, TierNone, ErrStoreUnavailable
	}

	ent := m.extractor.Extract(question)
	found, tier, err := m.search(ctx, ent)
	if err != nil {
		return nil, TierNone, fmt.Errorf("employee search: %w", err)
	}
	ranked := rank(found, ent.Trimmed)
	m.log.Debug("employee search",
		zap.String("tier", tier.String()),
		zap.Int("results", len(ranked)))
	return ranked, tier, nil
}

func (m *Matcher) search(ctx context.Context, ent Entities) ([]models.Employee, Tier, error) {
	q := ent.Trimmed

	// 1. Whole query is an exact designation phrase.
	if exactDesignations[strings.ToLower(q)] {
		res, err := m.find(ctx, employeestore.Match{Field: employeestore.FieldDesignation, Pattern: q, Anchored: true})
		if err != nil || len(res) > 0 {
			return res, TierExactDesignation, err
		}
	}

	// 2. Full name, anchored, then as a phrase.
	if q != "" {
		res, err := m.find(ctx, employeestore.Match{Field: employeestore.FieldName, Pattern: q, Anchored: true})
		if err != nil {
			return nil, TierNone, err
		}
		if len(res) == 0 {
			res, err = m.find(ctx, employeestore.Match{Field: employeestore.FieldName, Pattern: q})
			if err != nil {
				return nil, TierNone, err
			}
		}
		if len(res) > 0 {
			return res, TierFullName, nil
		}
	}

	// 3. Each capitalized name candidate, accumulated.
	if len(ent.Names) > 0 {
		var acc []models.Employee
		for _, name := range ent.Names {
			res, err := m.find(ctx, employeestore.Match{Field: employeestore.FieldName, Pattern: name})
			if err != nil {
				return nil, TierNone, err
			}
			acc = append(acc, res...)
		}
		if len(acc) > 0 {
			return acc, TierNameCandidates, nil
		}
	}

	// 4. Designation keyword, anchored.
	if ent.Designation != "" {
		res, err := m.find(ctx, employeestore.Match{Field: employeestore.FieldDesignation, Pattern: ent.Designation, Anchored: true})
		if err != nil || len(res) > 0 {
			return res, TierDesignationKeyword, err
		}
	}

	// 5. Free text against name or organisation unit. Designation and
	// department are not searched here.
	if free := strings.TrimSpace(ent.Lower); free != "" {
		res, err := m.find(ctx,
			employeestore.Match{Field: employeestore.FieldName, Pattern: free},
			employeestore.Match{Field: employeestore.FieldOrganisationUnit, Pattern: free},
		)
		if err != nil || len(res) > 0 {
			return res, TierFreeText, err
		}
	}

	return nil, TierNone, nil
}

func (m *Matcher) find(ctx context.Context, matches ...employeestore.Match) ([]models.Employee, error) {
	return m.store.FindEligible(ctx, matches...)
}

// rank drops ineligible records and duplicates, then moves records whose
// name equals the query (case-insensitively) to the front. Everything else
// keeps tier order, and within a tier store order.
func rank(found []models.Employee, query string) []models.Employee {
	out := make([]models.Employee, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, e := range found {
		if !e.DirectoryEligible() {
			continue
		}
		k := identity(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		e.Mobile = ""
		e.Department = ""
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return exactName(out[i], query) && !exactName(out[j], query)
	})
	return out
}

func exactName(e models.Employee, query string) bool {
	return strings.EqualFold(strings.TrimSpace(e.Name), query)
}

func identity(e models.Employee) string {
	if !e.ID.IsZero() {
		return e.ID.Hex()
	}
	return e.Name + "|" + e.Floor + "|" + e.RoomNumber
}
