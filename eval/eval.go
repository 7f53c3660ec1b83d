// Package eval runs golden cases through the agent and reports the outcome.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/agent"
	"github.com/effective-security/miniagent/encoding"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent", "eval")

// Case is a golden case: the final answer of the run for Input
// must contain ExpectContains
type Case struct {
	Name           string `json:"name" yaml:"name" toml:"name" validate:"required"`
	Input          string `json:"input" yaml:"input" toml:"input" validate:"required"`
	ExpectContains string `json:"expect_contains" yaml:"expect_contains" toml:"expect_contains"`
}

// Row is the outcome of one case
type Row struct {
	Name  string `json:"name" yaml:"name"`
	OK    bool   `json:"ok" yaml:"ok"`
	RunID string `json:"run_id" yaml:"run_id"`
	Final string `json:"final" yaml:"final"`
}

// Report of an eval
type Report struct {
	Rows []*Row `json:"rows" yaml:"rows"`
}

// LoadCases reads the cases, the format is chosen by the file extension:
// a JSON or YAML list, or TOML `[[cases]]` tables
func LoadCases(path string) ([]*Case, error) {
	mode, err := encoding.ModeFromFile(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var cases []*Case
	switch mode {
	case encoding.ModeYAML:
		err = yaml.Unmarshal(b, &cases)
	case encoding.ModeTOML:
		var doc struct {
			Cases []*Case `toml:"cases"`
		}
		_, err = toml.Decode(string(b), &doc)
		cases = doc.Cases
	default:
		err = json.Unmarshal(b, &cases)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode cases: %s", path)
	}

	validate := validator.New()
	for i, c := range cases {
		if c == nil {
			return nil, errors.Newf("case %d: empty", i)
		}
		if err = validate.Struct(c); err != nil {
			return nil, errors.Wrapf(err, "case %d", i)
		}
	}
	return cases, nil
}

// Run executes the cases sequentially with the default step budget
func Run(ctx context.Context, a *agent.Agent, cases []*Case) (*Report, error) {
	report := &Report{
		Rows: make([]*Row, 0, len(cases)),
	}
	for _, c := range cases {
		res, err := a.Run(ctx, agent.NewRequest(c.Input))
		if err != nil {
			return nil, errors.WithMessagef(err, "case %s", c.Name)
		}

		row := &Row{
			Name:  c.Name,
			OK:    strings.Contains(res.Final, c.ExpectContains),
			RunID: res.RunID,
			Final: res.Final,
		}
		report.Rows = append(report.Rows, row)

		logger.ContextKV(ctx, xlog.DEBUG,
			"case", c.Name,
			"ok", row.OK,
			"run_id", row.RunID,
			"status", res.Status,
		)
	}
	return report, nil
}

// PassedCount returns the number of passed cases
func (r *Report) PassedCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.OK {
			n++
		}
	}
	return n
}

// Passed returns true if every case passed
func (r *Report) Passed() bool {
	return r.PassedCount() == len(r.Rows)
}

// Failed returns the failed rows
func (r *Report) Failed() []*Row {
	var rows []*Row
	for _, row := range r.Rows {
		if !row.OK {
			rows = append(rows, row)
		}
	}
	return rows
}

// Markdown returns the report as a markdown table
func (r *Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Eval report\n")
	fmt.Fprintf(&sb, "- Passed: **%d/%d**\n", r.PassedCount(), len(r.Rows))
	sb.WriteString("| case | ok | notes |\n|---|---:|---|\n")
	for _, row := range r.Rows {
		mark := "❌"
		if row.OK {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "| %s | %s | run_id=%s |\n", row.Name, mark, row.RunID)
	}
	return sb.String()
}
