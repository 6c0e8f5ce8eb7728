package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-analytics-service/pkg/centrality"
	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
)

var (
	runFile string
	runTop  int
)

var runCmd = &cobra.Command{
	Use:   "run -f request.yaml",
	Short: "Run one analysis from a request document and print the JSON result",
	Long: `Run one analysis from a YAML or JSON request document.

The document names the algorithm and its parameters, lists entities and
relations, and optionally carries a graph or a co-occurrence selection for
HIERARCHICAL and CENTRALITY:

  algorithm: CENTRALITY
  cooccurrence: {containerType: patient, itemType: herb}
  entities: [{type: patient, name: p1}, {type: herb, name: h1}]
  relations: [{source: p1, relation: takes, target: h1}]`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		return runDocument(ctx, engine.New(cfg), runFile, runTop, cmd.OutOrStdout())
	},
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "request document path, - for stdin")
	runCmd.Flags().IntVar(&runTop, "top", -1, "truncate centrality rankings to n entries; -1 uses centrality.top_n, 0 prints all")
	_ = runCmd.MarkFlagRequired("file")
}

func runDocument(ctx context.Context, eng *engine.Engine, path string, top int, out io.Writer) error {
	doc, err := ReadDocument(path)
	if err != nil {
		return err
	}

	req, err := doc.Request(eng)
	if err != nil {
		return err
	}

	result, err := eng.Run(ctx, req)
	if err != nil {
		return err
	}

	if top < 0 {
		top = eng.Config().CentralityTopN()
	}
	if c, ok := result.(*engine.CentralityResult); ok && top > 0 {
		truncated := *c
		truncated.Degree = centrality.Top(c.Degree, top)
		truncated.Betweenness = centrality.Top(c.Betweenness, top)
		truncated.Closeness = centrality.Top(c.Closeness, top)
		truncated.PageRank = centrality.Top(c.PageRank, top)
		result = &truncated
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(map[string]interface{}{
		"algorithm": result.Algorithm(),
		"result":    result,
	}); err != nil {
		return errors.Wrap(err, "writing result")
	}
	return nil
}
