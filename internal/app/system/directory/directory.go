// internal/app/system/directory/directory.go
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/cwcconnect/internal/app/system/assistant"
	"github.com/dalemusser/cwcconnect/internal/app/system/matcher"
	"github.com/dalemusser/cwcconnect/internal/app/system/metrics"
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.uber.org/zap"
)

// ErrStoreUnavailable is returned by ListDirectory when the store is down.
var ErrStoreUnavailable = matcher.ErrStoreUnavailable

const (
	noResultsText   = "No employees found matching your query."
	unavailableText = "Employee database is currently not available. Please try again later or use the organizational structure menu to browse positions."
)

// Lister returns every directory-eligible record.
type Lister interface {
	ListEligible(ctx context.Context) ([]models.Employee, error)
}

// Searcher runs the layered text search.
type Searcher interface {
	Match(ctx context.Context, question string) ([]models.Employee, error)
}

// Answer is the chat reply contract.
type Answer struct {
	Reply          string `json:"reply"`
	MatchCount     int    `json:"employeeCount"`
	StoreAvailable bool   `json:"databaseAvailable"`
}

// Service exposes the two read paths.
type Service struct {
	lister    Lister
	searcher  Searcher
	avail     mongoconn.Availability
	augmenter assistant.Augmenter
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// New builds a Service. augmenter and m may be nil.
func New(lister Lister, searcher Searcher, avail mongoconn.Availability, augmenter assistant.Augmenter, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lister:    lister,
		searcher:  searcher,
		avail:     avail,
		augmenter: augmenter,
		metrics:   m,
		log:       logger,
	}
}

// StoreAvailable reports the current availability flag.
func (s *Service) StoreAvailable() bool {
	return s.avail == nil || s.avail.IsAvailable()
}

// ListDirectory returns all directory-eligible records in their public shape.
func (s *Service) ListDirectory(ctx context.Context) ([]models.EmployeeView, error) {
	if !s.StoreAvailable() {
		return nil, ErrStoreUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Query())
	defer cancel()

	recs, err := s.lister.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	out := make([]models.EmployeeView, 0, len(recs))
	for _, e := range recs {
		// the store filter matches any non-space character; re-check after trimming
		if !e.DirectoryEligible() {
			continue
		}
		out = append(out, e.View())
	}
	return out, nil
}

// AnswerQuery runs the matcher and formats a reply. It never fails: store
// problems and augmentation problems degrade to fixed texts or the
// deterministic summary.
func (s *Service) AnswerQuery(ctx context.Context, question string) Answer {
	if !s.StoreAvailable() {
		s.metrics.ChatQuery(metrics.ChatUnavailable)
		return Answer{Reply: UnavailableReply()}
	}

	qctx, cancel := context.WithTimeout(ctx, timeouts.Query())
	found, err := s.searcher.Match(qctx, question)
	cancel()
	if err != nil {
		if !errors.Is(err, matcher.ErrStoreUnavailable) {
			s.log.Error("employee search failed", zap.String("query", question), zap.Error(err))
		}
		s.metrics.ChatQuery(metrics.ChatUnavailable)
		return Answer{Reply: UnavailableReply()}
	}

	s.log.Info("chat query", zap.String("query", question), zap.Int("matches", len(found)))

	if len(found) == 0 {
		s.metrics.ChatQuery(metrics.ChatNoMatch)
		return Answer{Reply: NoMatchReply(question), StoreAvailable: true}
	}

	summary := FormatSummary(found)
	ans := Answer{Reply: summary, MatchCount: len(found), StoreAvailable: true}

	if s.augmenter == nil {
		s.metrics.ChatQuery(metrics.ChatMatch)
		return ans
	}

	actx, cancel := context.WithTimeout(ctx, timeouts.Augment())
	defer cancel()
	reply, err := s.augmenter.Rephrase(actx, question, summary)
	if err != nil {
		s.log.Warn("augmentation failed, using direct response",
			zap.String("provider", s.augmenter.Name()),
			zap.Error(err))
		s.metrics.ChatQuery(metrics.ChatMatch)
		return ans
	}
	ans.Reply = reply
	s.metrics.ChatQuery(metrics.ChatAugmented)
	return ans
}

// FormatSummary renders matches as a numbered list. Mobile and department are
// never printed.
func FormatSummary(emps []models.Employee) string {
	if len(emps) == 0 {
		return noResultsText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d employee(s):\n\n", len(emps))
	for i, e := range emps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Name)
		designation := e.Designation
		if designation == "" {
			designation = "Not specified"
		}
		fmt.Fprintf(&b, "   Designation: %s\n", designation)
		line(&b, "Unit", e.OrganisationUnit)
		line(&b, "Location", e.Floor)
		line(&b, "Room/Ext", e.RoomNumber)
		line(&b, "Email", e.Email)
		line(&b, "Phone", e.Landline)
		b.WriteString("\n")
	}
	return b.String()
}

func line(b *strings.Builder, label, v string) {
	if strings.TrimSpace(v) == "" {
		return
	}
	fmt.Fprintf(b, "   %s: %s\n", label, v)
}

// NoMatchReply is the guidance returned when no tier matched.
func NoMatchReply(question string) string {
	return fmt.Sprintf("I couldn't find any employees matching %q. Try searching by:\n"+
		"- Full name (e.g., \"Amitabh Tiwari\")\n"+
		"- Designation (e.g., \"Director\", \"Engineer\")\n"+
		"- Organization unit\n\n"+
		"You can also browse the organizational structure using the menu button.", question)
}

// UnavailableReply is returned when the store cannot be queried.
func UnavailableReply() string {
	return "Sorry, the employee database is currently not available. Here are some things you can do:\n\n" +
		"1. Use the organizational structure menu (☰) to browse positions\n" +
		"2. Try again in a few moments\n" +
		"3. Contact the reception desk for immediate assistance\n\n" +
		"The CWC Connect system will automatically reconnect to the database when it becomes available."
}
