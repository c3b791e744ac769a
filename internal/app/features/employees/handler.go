// internal/app/features/employees/handler.go
package employees

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	employeestore "github.com/dalemusser/cwcconnect/internal/app/store/employees"
	"github.com/dalemusser/cwcconnect/internal/app/system/directory"
	"github.com/dalemusser/cwcconnect/internal/app/system/dirsync"
	"github.com/dalemusser/cwcconnect/internal/app/system/ingest"
	"github.com/dalemusser/cwcconnect/internal/app/system/tasks"
	"github.com/dalemusser/cwcconnect/internal/app/system/timeouts"
	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"go.uber.org/zap"
)

const notConfigured = "Not configured"

// Lister is the directory read path.
type Lister interface {
	ListDirectory(ctx context.Context) ([]models.EmployeeView, error)
}

// Syncer runs a sync cycle and remembers the last one.
type Syncer interface {
	Run(ctx context.Context) (dirsync.Result, error)
	LastRun() (dirsync.Result, bool)
}

// Stats reports per-source aggregates.
type Stats interface {
	Count(ctx context.Context) (int64, error)
	SourceStats(ctx context.Context, src models.DataSource) (employeestore.SourceStat, error)
}

// Schedule exposes the recurring job timetable.
type Schedule interface {
	NextRun(name string) (time.Time, bool)
	Interval(name string) (time.Duration, bool)
}

// Handler serves the employee listing and sync endpoints.
type Handler struct {
	Directory Lister
	Sync      Syncer
	Stats     Stats
	Schedule  Schedule
	API       ingest.FetchConfig
	Log       *zap.Logger
	Now       func() time.Time
}

// NewHandler builds the employees Handler. schedule may be nil when the
// recurring sync is disabled.
func NewHandler(dir Lister, sync Syncer, stats Stats, schedule Schedule, api ingest.FetchConfig, logger *zap.Logger) *Handler {
	return &Handler{
		Directory: dir,
		Sync:      sync,
		Stats:     stats,
		Schedule:  schedule,
		API:       api,
		Log:       logger,
		Now:       time.Now,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/employees                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList returns every directory-eligible employee.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	views, err := h.Directory.ListDirectory(r.Context())
	switch {
	case errors.Is(err, directory.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "Employee database is currently not available"})
		return
	case err != nil:
		h.Log.Error("list employees failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch employees"})
		return
	}
	writeJSON(w, http.StatusOK, views)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/employees/sync/manual and /sync/api                                |
*─────────────────────────────────────────────────────────────────────────────*/

type syncResponse struct {
	Message string         `json:"message"`
	Result  dirsync.Result `json:"result"`
}

// ServeManualSync runs one sync cycle inline.
func (h *Handler) ServeManualSync(w http.ResponseWriter, r *http.Request) {
	// the cycle outlives a dropped client connection
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Sync())
	defer cancel()

	res, err := h.Sync.Run(ctx)
	if err != nil {
		h.Log.Error("manual sync failed", zap.String("run_id", res.RunID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Sync failed", Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Message: "Database synced successfully!", Result: res})
}

// ServeAPISync is ServeManualSync guarded by the API credentials check.
func (h *Handler) ServeAPISync(w http.ResponseWriter, r *http.Request) {
	if !h.API.Configured() {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "CWC API not configured. Please set UPDATE_API, API_USERNAME, and API_PASSWORD environment variables.",
		})
		return
	}
	h.ServeManualSync(w, r)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/employees/sync/status                                              |
*─────────────────────────────────────────────────────────────────────────────*/

type sourceStatus struct {
	Count      int64      `json:"count"`
	LastUpdate *time.Time `json:"lastUpdate"`
}

type apiConfigStatus struct {
	UpdateAPI      string `json:"updateAPI"`
	HasCredentials bool   `json:"hasCredentials"`
	Username       string `json:"username"`
}

type statusResponse struct {
	Status         string                  `json:"status"`
	TotalEmployees int64                   `json:"totalEmployees"`
	DataSources    map[string]sourceStatus `json:"dataSources"`
	CWCAPIConfig   apiConfigStatus         `json:"cwcApiConfig"`
	NextSync       string                  `json:"nextScheduledSync"`
	LastRun        *dirsync.Result         `json:"lastRun,omitempty"`
	Timestamp      string                  `json:"timestamp"`
}

// ServeStatus reports per-source counts, API configuration and schedule.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Query())
	defer cancel()

	total, err := h.Stats.Count(ctx)
	if err != nil {
		h.statusFailed(w, err)
		return
	}
	api, err := h.Stats.SourceStats(ctx, models.DataSourceAPI)
	if err != nil {
		h.statusFailed(w, err)
		return
	}
	excel, err := h.Stats.SourceStats(ctx, models.DataSourceExcel)
	if err != nil {
		h.statusFailed(w, err)
		return
	}

	resp := statusResponse{
		Status:         "OK",
		TotalEmployees: total,
		DataSources: map[string]sourceStatus{
			"api":   {Count: api.Count, LastUpdate: api.LastUpdate},
			"excel": {Count: excel.Count, LastUpdate: excel.LastUpdate},
		},
		CWCAPIConfig: apiConfigStatus{
			UpdateAPI:      orNotConfigured(h.API.URL),
			HasCredentials: strings.TrimSpace(h.API.Username) != "" && strings.TrimSpace(h.API.Password) != "",
			Username:       orNotConfigured(h.API.Username),
		},
		NextSync:  h.nextSync(),
		Timestamp: h.Now().UTC().Format(time.RFC3339),
	}
	if last, ok := h.Sync.LastRun(); ok {
		resp.LastRun = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) statusFailed(w http.ResponseWriter, err error) {
	h.Log.Error("sync status failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to get sync status", Details: err.Error()})
}

func (h *Handler) nextSync() string {
	if h.Schedule == nil {
		return "Not scheduled"
	}
	if next, ok := h.Schedule.NextRun(tasks.EmployeeSyncJobName); ok {
		return next.UTC().Format(time.RFC3339)
	}
	if iv, ok := h.Schedule.Interval(tasks.EmployeeSyncJobName); ok {
		return "Every " + humanInterval(iv)
	}
	return "Not scheduled"
}

func humanInterval(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if n := int(d / time.Hour); n != 1 {
			return strconv.Itoa(n) + " hours"
		}
		return "hour"
	case d >= time.Minute && d%time.Minute == 0:
		if n := int(d / time.Minute); n != 1 {
			return strconv.Itoa(n) + " minutes"
		}
		return "minute"
	}
	return d.String()
}

func orNotConfigured(s string) string {
	if strings.TrimSpace(s) == "" {
		return notConfigured
	}
	return s
}
