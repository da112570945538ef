package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/gear6io/sqllab/server/runner"
	"github.com/gofiber/fiber/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	ErrServerUnreachable = errors.MustNewCode("cli.server_unreachable")
	ErrServerResponse    = errors.MustNewCode("cli.bad_server_response")
)

const historyQueryWidth = 60

func createHistoryCommand(app *App) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the query history of a running sqllab server",
		Long: `Query history lives in memory. Inside the shell use \history; this
command asks a running 'sqllab serve' for its history instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				address = app.cfg.Server.Address
			}
			queries, err := fetchHistory(address, app.cfg.Server.RequestTimeout)
			if err != nil {
				return err
			}
			app.printHistory(queries)
			return nil
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "server address, defaults to server.address")
	return cmd
}

func fetchHistory(address string, timeout time.Duration) ([]runner.QueryInfo, error) {
	url := "http://" + address + "/api/queries"

	agent := fiber.Get(url)
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, errors.New(ErrServerUnreachable, "could not reach sqllab server", errs[0]).
			AddContext("address", address)
	}
	if code != fiber.StatusOK {
		return nil, errors.Newf(ErrServerResponse, "server answered %d: %s", code, gjson.GetBytes(body, "error").String())
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New(ErrServerResponse, "server answered with invalid JSON", nil)
	}

	return parseHistory(gjson.GetBytes(body, "queries")), nil
}

func parseHistory(list gjson.Result) []runner.QueryInfo {
	var queries []runner.QueryInfo
	list.ForEach(func(_, q gjson.Result) bool {
		info := runner.QueryInfo{
			ID:        q.Get("id").String(),
			Query:     q.Get("query").String(),
			Status:    runner.QueryStatus(q.Get("status").String()),
			StartTime: q.Get("start_time").Time(),
			Session:   q.Get("session").String(),
			Source:    q.Get("source").String(),
			Error:     q.Get("error").String(),
			RowCount:  q.Get("row_count").Int(),
		}
		if d := q.Get("duration"); d.Exists() {
			dur := time.Duration(d.Int())
			info.Duration = &dur
		}
		queries = append(queries, info)
		return true
	})
	return queries
}

func (a *App) printHistory(queries []runner.QueryInfo) {
	if len(queries) == 0 {
		a.println("No queries yet.")
		return
	}

	data := pterm.TableData{{"Started", "Status", "Rows", "Duration", "Query"}}
	for _, q := range queries {
		dur := ""
		if q.Duration != nil {
			dur = q.Duration.Round(time.Microsecond).String()
		}
		data = append(data, []string{
			q.StartTime.Local().Format("15:04:05"),
			string(q.Status),
			strconv.FormatInt(q.RowCount, 10),
			dur,
			shorten(q.Query),
		})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		a.printf("❌ %v\n", err)
		return
	}
	a.println(fmt.Sprintf("🕘 Query history (%d)", len(queries)))
	a.println(rendered)
}

func shorten(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	r := []rune(q)
	if len(r) <= historyQueryWidth {
		return q
	}
	return string(r[:historyQueryWidth-3]) + "..."
}
