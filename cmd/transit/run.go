package main

import (
	"context"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/transitdb/transit/config"
	"github.com/transitdb/transit/errors"
	"github.com/transitdb/transit/session"
)

// exitCode classifies a query failure: a malformed script (Parse) exits 2,
// any other evaluator failure exits 1.
type exitCode int

const (
	exitOK         exitCode = 0
	exitEvalError  exitCode = 1
	exitParseError exitCode = 2
)

// envelopeJSON mirrors session.Envelope for JSON output, using a nested
// result shape instead of query.Result directly so the CLI's wire format
// doesn't drift if the internal Result type grows evaluator-only fields.
type envelopeJSON struct {
	ID         string       `json:"id"`
	Status     string       `json:"status"`
	ElapsedMS  int64        `json:"elapsed_ms"`
	ResultSets []resultJSON `json:"result_sets,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type resultJSON struct {
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	RowCount int        `json:"row_count"`
	Limited  bool       `json:"limited"`
}

func runScript(cmd *cobra.Command, cfg config.Config, log *zap.Logger, script string) exitCode {
	sess, err := session.Open(cfg.DB, cfg.ScriptCacheSize, session.WithLogger(log))
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitEvalError
	}
	defer sess.Close()

	env := sess.Run(context.Background(), script)
	printEnvelope(cmd, env)

	if env.Status == "ok" {
		return exitOK
	}
	if env.ErrorKind == errors.Parse {
		return exitParseError
	}
	return exitEvalError
}

func printEnvelope(cmd *cobra.Command, env *session.Envelope) {
	out := envelopeJSON{
		ID:        env.ID,
		Status:    env.Status,
		ElapsedMS: env.ElapsedMS,
		Error:     env.Error,
	}
	for _, rs := range env.ResultSets {
		out.ResultSets = append(out.ResultSets, resultJSON{
			Columns:  rs.Columns,
			Rows:     rs.Rows,
			RowCount: rs.RowCount,
			Limited:  rs.Limited,
		})
	}

	enc := gojson.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
	}
}
