package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cwcconnect/internal/domain/models"
	"github.com/spf13/cobra"
)

// syncCmd runs one sync cycle
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one directory sync cycle and print the result",
	Long: `Run one sync cycle: the roster API when configured, otherwise the
spreadsheet pair in the data directory. The run result is printed as JSON.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

// askCmd answers a question the way the chat endpoint does
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Search the directory with a free-text question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

// statusCmd prints per-source counts
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored employee counts by data source",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var askRaw bool

func init() {
	askCmd.Flags().BoolVar(&askRaw, "json", false, "print the full answer as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.rt.Engine.Run(cmd.Context())
	if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
		return perr
	}
	return err
}

func runAsk(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	ans := s.rt.Directory.AnswerQuery(cmd.Context(), strings.Join(args, " "))
	if askRaw {
		return printJSON(cmd.OutOrStdout(), ans)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ans.Reply)
	return nil
}

type sourceLine struct {
	Count      int64      `json:"count"`
	LastUpdate *time.Time `json:"lastUpdate"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if !s.handle.IsAvailable() {
		return fmt.Errorf("employee store unavailable at %s", s.cfg.MongoURI)
	}

	ctx := cmd.Context()
	total, err := s.rt.Employees.Count(ctx)
	if err != nil {
		return err
	}
	out := map[string]any{
		"totalEmployees":  total,
		"apiConfigured":   s.rt.API.Configured(),
		"syncInterval":    s.cfg.SyncInterval.String(),
		"spreadsheetPath": s.cfg.DataDir,
	}
	sources := map[string]sourceLine{}
	for key, src := range map[string]models.DataSource{"api": models.DataSourceAPI, "excel": models.DataSourceExcel} {
		st, err := s.rt.Employees.SourceStats(ctx, src)
		if err != nil {
			return err
		}
		sources[key] = sourceLine{Count: st.Count, LastUpdate: st.LastUpdate}
	}
	out["dataSources"] = sources
	return printJSON(cmd.OutOrStdout(), out)
}
