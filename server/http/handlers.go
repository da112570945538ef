package http

import (
	"strings"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/pkg/guard"
	"github.com/gear6io/sqllab/pkg/report"
	"github.com/gear6io/sqllab/pkg/resultset"
	"github.com/gear6io/sqllab/server/progress"
	"github.com/gear6io/sqllab/server/runner"
	"github.com/gear6io/sqllab/server/sandbox"
	"github.com/gear6io/sqllab/server/tutorial"
	"github.com/gear6io/sqllab/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type queryRequest struct {
	Query    string `json:"query"`
	LessonID string `json:"lesson_id"`
}

type verdictResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	QueryID string `json:"query_id,omitempty"`
}

type queryResponse struct {
	QueryID    string           `json:"query_id"`
	Report     string           `json:"report"`
	Analysis   report.Analysis  `json:"analysis"`
	Columns    []string         `json:"columns"`
	Rows       [][]any          `json:"rows"`
	DurationMS float64          `json:"duration_ms"`
	Lesson     *progress.Lesson `json:"lesson,omitempty"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

type tutorialEntry struct {
	tutorial.Tutorial
	Completed bool `json:"completed"`
}

// session makes sure every request carries a session id
func (s *Server) session(c *fiber.Ctx) error {
	id := c.Get(SessionHeader)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Locals(SessionHeader, id)
	c.Set(SessionHeader, id)
	return c.Next()
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(SessionHeader).(string)
	return id
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"server":    "sqllab-http",
	})
}

func parseQuery(c *fiber.Ctx) (queryRequest, error) {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return req, errors.New(ErrInvalidBody, "request body must be JSON with a query field", err)
	}
	if strings.TrimSpace(req.Query) == "" {
		return req, errors.New(ErrQueryRequired, "query is required", nil)
	}
	return req, nil
}

func newVerdictResponse(v guard.Verdict, queryID string) verdictResponse {
	return verdictResponse{Allowed: v.Allowed(), Reason: v.Reason(), Keyword: v.Keyword(), QueryID: queryID}
}

func (s *Server) handleValidate(c *fiber.Ctx) error {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.New(ErrInvalidBody, "request body must be JSON with a query field", err)
	}
	// an empty query is a valid input with a verdict of its own
	return c.JSON(newVerdictResponse(guard.Validate(req.Query), ""))
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	req, err := parseQuery(c)
	if err != nil {
		return err
	}

	out, err := s.deps.Runner.Execute(c.UserContext(), runner.Request{
		Query:     req.Query,
		LessonID:  req.LessonID,
		SessionID: sessionID(c),
		Source:    "http",
	})
	if err != nil {
		return err
	}

	if !out.Executed() {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(newVerdictResponse(out.Verdict, out.QueryID))
	}

	columns := out.Rows.Columns()
	if columns == nil {
		columns = []string{}
	}
	return c.JSON(queryResponse{
		QueryID:    out.QueryID,
		Report:     out.Report,
		Analysis:   out.Analysis,
		Columns:    columns,
		Rows:       tabulate(out.Rows, columns),
		DurationMS: float64(out.Duration.Microseconds()) / 1000,
		Lesson:     out.Lesson,
	})
}

// tabulate lays rows out in column order, nil for keys a row lacks
func tabulate(rows resultset.ResultSet, columns []string) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i], _ = row.Get(col)
		}
		out = append(out, values)
	}
	return out
}

func (s *Server) handleTables(c *fiber.Ctx) error {
	tables, err := s.deps.Schema.Tables(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tables": tables})
}

func (s *Server) handleTableSchema(c *fiber.Ctx) error {
	name := c.Params("name")
	columns, err := s.deps.Schema.TableSchema(c.UserContext(), name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"table":         name,
		"columns":       columns,
		"preview_query": sandbox.PreviewQuery(name),
	})
}

func (s *Server) handleTutorials(c *fiber.Ctx) error {
	done := map[string]bool{}
	if s.deps.Progress != nil {
		var err error
		if done, err = s.deps.Progress.Completed(c.UserContext()); err != nil {
			return err
		}
	}

	list := s.deps.Catalog.List()
	entries := make([]tutorialEntry, len(list))
	for i, t := range list {
		entries[i] = tutorialEntry{Tutorial: t, Completed: done[t.ID]}
	}
	return c.JSON(fiber.Map{"tutorials": entries})
}

func (s *Server) handleTutorial(c *fiber.Ctx) error {
	t, err := s.deps.Catalog.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (s *Server) handleQueries(c *fiber.Ctx) error {
	manager := s.deps.Runner.Manager()

	var queries []runner.QueryInfo
	switch status := c.Query("status"); status {
	case "":
		queries = manager.ListQueries()
	case string(runner.QueryStatusRunning):
		queries = manager.ListRunningQueries()
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unsupported status filter "+status)
	}
	if queries == nil {
		queries = []runner.QueryInfo{}
	}

	return c.JSON(fiber.Map{
		"queries": queries,
		"stats":   manager.GetStats(),
	})
}

// queryID reads the :id route parameter, which must be a query ULID
func queryID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := utils.ParseULID(id); err != nil {
		return "", errors.New(ErrInvalidQueryID, "query id must be a ULID", err).AddContext("query_id", id)
	}
	return id, nil
}

func (s *Server) handleQueryInfo(c *fiber.Ctx) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}
	info, err := s.deps.Runner.Manager().GetQueryInfo(id)
	if err != nil {
		return err
	}
	return c.JSON(info)
}

func (s *Server) handleCancelQuery(c *fiber.Ctx) error {
	id, err := queryID(c)
	if err != nil {
		return err
	}
	manager := s.deps.Runner.Manager()
	if err := manager.CancelQuery(id); err != nil {
		return err
	}
	info, err := manager.GetQueryInfo(id)
	if err != nil {
		return err
	}
	return c.JSON(info)
}

// handleError turns coded errors into JSON responses with a matching status
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	resp := errorResponse{Error: err.Error()}
	switch {
	case errors.IsSqllabError(err):
		resp.Code = errors.GetCode(err)
		resp.Context = errors.GetContext(err)
	case status >= fiber.StatusInternalServerError:
		// uncoded failures still answer with a code clients can match on
		resp.Code = errors.AsError(err).Code.String()
	}
	return c.Status(status).JSON(resp)
}

func statusFor(err error) int {
	switch {
	case errors.HasCode(err, ErrInvalidBody),
		errors.HasCode(err, ErrQueryRequired),
		errors.HasCode(err, ErrInvalidQueryID),
		errors.HasCode(err, sandbox.ErrInvalidTableName),
		errors.HasCode(err, runner.ErrQueryFailed),
		errors.HasCode(err, runner.ErrQueryCancelled):
		return fiber.StatusBadRequest
	case errors.HasCode(err, sandbox.ErrTableNotFound),
		errors.HasCode(err, tutorial.ErrTutorialMissing),
		errors.HasCode(err, runner.ErrUnknownLesson),
		errors.HasCode(err, runner.ErrQueryNotFound):
		return fiber.StatusNotFound
	case errors.HasCode(err, runner.ErrQueryNotRunning):
		return fiber.StatusConflict
	case errors.HasCode(err, runner.ErrQueryTimeout):
		return fiber.StatusRequestTimeout
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
