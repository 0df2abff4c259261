package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/litbot/internal/reference"
	"github.com/matsen/litbot/internal/scholar"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query the paper search providers once",
	Long: `Run one query through the search gateway (Semantic Scholar, then
OpenAlex) and print the papers. Output is JSON unless --human is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum results (default search.max_results)")
	rootCmd.AddCommand(searchCmd)
}

// SearchResponse is the JSON output of litbot search.
type SearchResponse struct {
	Query  string            `json:"query"`
	Count  int               `json:"count"`
	Papers []reference.Paper `json:"papers"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit := cfg.Search.MaxResults
	if searchLimit > 0 {
		limit = searchLimit
	}

	papers := newGateway(nil).Search(cmd.Context(), query, limit)

	if humanOutput {
		outputHuman("%s", scholar.FormatResults(query, papers))
		return nil
	}
	if papers == nil {
		papers = []reference.Paper{}
	}
	return outputJSON(SearchResponse{Query: query, Count: len(papers), Papers: papers})
}
