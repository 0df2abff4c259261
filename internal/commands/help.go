package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// topics are the !help entries beyond per-command usage.
var topics = map[string]string{
	"notes": `Research notes attach free text to cited papers.
  !add_note <paper_index> <note_text>
  !view_notes [paper_index]
  !delete_note <paper_index> <note_index>
  !clear_notes [paper_index]
You can also write "add note to paper 1: check the methodology".`,

	"lists": `Reading lists group cited papers under a name.
  !reading_list create <list_name>
  !reading_list add <list_name> <paper_index>
  !reading_list remove <list_name> <paper_index>
  !reading_list view [list_name]
  !reading_list delete <list_name>
You can also write "add paper 2 to list ml" or "show reading lists".`,

	"citations": `Every paper found by a research question is added to the bibliography.
  !papers                      list cited papers by index
  !cite <paper_index> [style]  format one paper
  !bibliography [style]        format every paper
  !bibtex                      export BibTeX
  !related <paper_index> [max] find similar cited papers
  !citation_styles             list styles (APA is the default)`,

	"research": `Ask a research question in plain language, e.g.
"what are recent results on protein folding with transformers?"
The bot searches Semantic Scholar (falling back to OpenAlex), answers from
the papers it found, and adds them to the bibliography.`,
}

func helpCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help [topic]",
		Short: "Shows help for a command or topic.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), overview(root))
				return nil
			}
			name := strings.TrimPrefix(strings.ToLower(args[0]), Prefix)
			if text, ok := topics[name]; ok {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			for _, c := range root.Commands() {
				if c.Name() == name {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", usage(c), c.Short)
					return nil
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "No help for %q. Topics: %s\n", name, topicNames())
			return nil
		},
	}
}

func overview(root *cobra.Command) string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		fmt.Fprintf(&b, "  %s%-16s %s\n", Prefix, c.Name(), c.Short)
	}
	fmt.Fprintf(&b, "\nTopics: %s (use !help <topic>)", topicNames())
	return b.String()
}

func topicNames() string {
	names := make([]string, 0, len(topics))
	for n := range topics {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
