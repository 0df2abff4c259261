// Package commands implements the "!" command surface. Each message is
// parsed by a fresh cobra tree bound to its conversation, so commands
// never share state across messages.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/litbot/internal/agent"
	"github.com/matsen/litbot/internal/bibliography"
)

// Prefix marks a message as a structured command.
const Prefix = "!"

// IsCommand reports whether text should go to the command surface.
func IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), Prefix)
}

// Runner executes "!" commands against an agent.
type Runner struct {
	agent *agent.Agent
}

// New creates a Runner.
func New(a *agent.Agent) *Runner {
	return &Runner{agent: a}
}

// Execute runs one command message and returns the reply.
func (r *Runner) Execute(ctx context.Context, conv, text string) string {
	args := strings.Fields(strings.TrimPrefix(strings.TrimSpace(text), Prefix))
	if len(args) == 0 {
		return unknownCommand("")
	}

	var out bytes.Buffer
	root := r.newRoot(conv)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		if cmd == nil || cmd == root {
			return unknownCommand(args[0])
		}
		return usage(cmd)
	}
	return strings.TrimRight(out.String(), "\n")
}

func unknownCommand(name string) string {
	return fmt.Sprintf("Unknown command: !%s. Type !help for a list of commands.", name)
}

// usage renders the usage line of cmd, e.g. "Usage: !cite <paper_index> [style]".
func usage(cmd *cobra.Command) string {
	if p := cmd.Parent(); p != nil && p.Name() == "reading_list" {
		return agent.ReadingListUsage
	}
	if cmd.Name() == "reading_list" {
		return agent.ReadingListUsage
	}
	line := cmd.UseLine()
	if i := strings.Index(line, " "); i >= 0 {
		line = line[i+1:]
	}
	return "Usage: " + Prefix + line
}

// reply writes the result of an agent operation, rendering errors the
// same way natural-language requests do.
func (r *Runner) reply(cmd *cobra.Command, out string, err error) error {
	if err != nil {
		out = r.agent.Render(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (r *Runner) newRoot(conv string) *cobra.Command {
	root := &cobra.Command{
		Use:           Prefix,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	cmds := []*cobra.Command{
		r.pingCmd(),
		r.citeCmd(conv),
		r.bibliographyCmd(conv),
		r.bibtexCmd(conv),
		r.papersCmd(conv),
		r.stylesCmd(),
		r.addNoteCmd(conv),
		r.viewNotesCmd(conv),
		r.deleteNoteCmd(conv),
		r.clearNotesCmd(conv),
		r.readingListCmd(conv),
		r.relatedCmd(conv),
	}
	for _, c := range cmds {
		plain(c)
		root.AddCommand(c)
	}
	help := helpCmd(root)
	plain(help)
	root.SetHelpCommand(help)
	return root
}

// plain turns off flag parsing so note text and list names pass through
// untouched.
func plain(cmd *cobra.Command) {
	cmd.DisableFlagParsing = true
	cmd.DisableFlagsInUseLine = true
	for _, c := range cmd.Commands() {
		plain(c)
	}
}

func (r *Runner) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping [text]",
		Short: "Pings the bot.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return r.reply(cmd, "Pong!", nil)
			}
			return r.reply(cmd, "Pong! Your argument was "+strings.Join(args, " "), nil)
		},
	}
}

func (r *Runner) citeCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "cite <paper_index> [style]",
		Short: "Formats a citation for a paper in the bibliography.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			style := ""
			if len(args) > 1 {
				style = args[1]
			}
			out, err := r.agent.Cite(cmd.Context(), conv, args[0], style)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) bibliographyCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "bibliography [style]",
		Short: "Shows the current bibliography in the specified format.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			style := ""
			if len(args) > 0 {
				style = args[0]
			}
			out, err := r.agent.Bibliography(cmd.Context(), conv, style)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) bibtexCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "bibtex",
		Short: "Exports the bibliography as BibTeX.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := r.agent.BibTeX(cmd.Context(), conv)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) papersCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "papers",
		Short: "Lists all cited papers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := r.agent.Papers(cmd.Context(), conv)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) stylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "citation_styles",
		Short: "Lists all available citation styles.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.reply(cmd, r.agent.Styles(), nil)
		},
	}
}

func (r *Runner) addNoteCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "add_note <paper_index> <note_text>",
		Short: "Add a note to a paper in the bibliography.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := r.agent.AddNote(cmd.Context(), conv, args[0], strings.Join(args[1:], " "))
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) viewNotesCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "view_notes [paper_index]",
		Short: "View notes for a specific paper or all papers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paper := ""
			if len(args) > 0 {
				paper = args[0]
			}
			out, err := r.agent.ViewNotes(cmd.Context(), conv, paper)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) deleteNoteCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete_note <paper_index> <note_index>",
		Short: "Delete a note from a paper.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := r.agent.DeleteNote(cmd.Context(), conv, args[0], args[1])
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) clearNotesCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear_notes [paper_index]",
		Short: "Clear all notes for a paper or all papers.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paper := ""
			if len(args) > 0 {
				paper = args[0]
			}
			out, err := r.agent.ClearNotes(cmd.Context(), conv, paper)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) relatedCmd(conv string) *cobra.Command {
	return &cobra.Command{
		Use:   "related <paper_index> [max]",
		Short: "Finds cited papers related to a paper.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := bibliography.DefaultRelated
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid max %q", args[1])
				}
				limit = n
			}
			out, err := r.agent.Related(cmd.Context(), conv, args[0], limit)
			return r.reply(cmd, out, err)
		},
	}
}

func (r *Runner) readingListCmd(conv string) *cobra.Command {
	parent := &cobra.Command{
		Use:   "reading_list <create|add|remove|view|delete> [list_name] [paper_index]",
		Short: "Manage reading lists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.reply(cmd, agent.ReadingListUsage, nil)
		},
	}

	parent.AddCommand(
		&cobra.Command{
			Use:  "create <list_name>",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := r.agent.CreateList(cmd.Context(), conv, args[0])
				return r.reply(cmd, out, err)
			},
		},
		&cobra.Command{
			Use:  "add <list_name> <paper_index>",
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := r.agent.AddToList(cmd.Context(), conv, args[0], args[1])
				return r.reply(cmd, out, err)
			},
		},
		&cobra.Command{
			Use:  "remove <list_name> <paper_index>",
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := r.agent.RemoveFromList(cmd.Context(), conv, args[0], args[1])
				return r.reply(cmd, out, err)
			},
		},
		&cobra.Command{
			Use:  "view [list_name]",
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := ""
				if len(args) > 0 {
					name = args[0]
				}
				out, err := r.agent.ViewLists(cmd.Context(), conv, name)
				return r.reply(cmd, out, err)
			},
		},
		&cobra.Command{
			Use:  "delete <list_name>",
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := r.agent.DeleteList(cmd.Context(), conv, args[0])
				return r.reply(cmd, out, err)
			},
		},
	)
	return parent
}
