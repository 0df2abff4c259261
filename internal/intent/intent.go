// Package intent recognizes structured commands written as free text.
//
// Rules are tried in a fixed order and the first match wins; anything no
// rule matches is Fallback, which the agent treats as a research question
// or plain chat.
package intent

import (
	"regexp"
	"strings"
)

// Kind names a recognized command.
type Kind string

const (
	NoteAdd      Kind = "note_add"
	NoteView     Kind = "note_view"
	NoteViewAll  Kind = "note_view_all"
	NoteDelete   Kind = "note_delete"
	NoteClear    Kind = "note_clear"
	NoteClearAll Kind = "note_clear_all"

	ListCreate  Kind = "list_create"
	ListAdd     Kind = "list_add"
	ListRemove  Kind = "list_remove"
	ListView    Kind = "list_view"
	ListViewAll Kind = "list_view_all"
	ListDelete  Kind = "list_delete"
	ListUsage   Kind = "list_usage"

	Related      Kind = "related"
	Cite         Kind = "cite"
	Bibliography Kind = "bibliography"
	Papers       Kind = "papers"
	Styles       Kind = "styles"

	Fallback Kind = "fallback"
)

// Group returns the coarse category of k, used for metrics labels.
func (k Kind) Group() string {
	switch {
	case strings.HasPrefix(string(k), "note_"):
		return "notes"
	case strings.HasPrefix(string(k), "list_"):
		return "reading_list"
	default:
		return string(k)
	}
}

// Match is the result of classifying one message. Index fields hold the
// text the user typed; callers validate them.
type Match struct {
	Kind  Kind
	Paper string // Paper display index
	Note  string // 1-based note index
	Text  string // Note body
	List  string // Reading list name
	Style string // Citation style, empty for default
}

// Rule pairs a pattern with the extractor that builds a Match from its
// submatches.
type Rule struct {
	Kind    Kind
	Pattern *regexp.Regexp
	Extract func(m []string) Match
}

// tail allows trailing whitespace and sentence punctuation.
const tail = `[\s?.!]*$`

var rules = []Rule{
	// Notes.
	{NoteAdd, regexp.MustCompile(`(?is)^\s*add (?:a )?note (?:to|for|on) paper\s+(\S+?)\s*:(.*)$`),
		func(m []string) Match { return Match{Kind: NoteAdd, Paper: m[1], Text: strings.TrimSpace(m[2])} }},
	{NoteView, regexp.MustCompile(`(?i)^\s*(?:view|show|see|display|get) (?:the |my )?notes (?:for|on|of) paper\s+(\S+?)` + tail),
		func(m []string) Match { return Match{Kind: NoteView, Paper: m[1]} }},
	{NoteViewAll, regexp.MustCompile(`(?i)^\s*(?:view|show|see|display|get) (?:all )?(?:the |my )?(?:research )?notes` + tail),
		func(m []string) Match { return Match{Kind: NoteViewAll} }},
	{NoteDelete, regexp.MustCompile(`(?i)^\s*(?:delete|remove) note\s+(\S+) (?:from|for|on) paper\s+(\S+?)` + tail),
		func(m []string) Match { return Match{Kind: NoteDelete, Note: m[1], Paper: m[2]} }},
	{NoteClear, regexp.MustCompile(`(?i)^\s*clear (?:all )?(?:the )?notes (?:for|on|from) paper\s+(\S+?)` + tail),
		func(m []string) Match { return Match{Kind: NoteClear, Paper: m[1]} }},
	{NoteClearAll, regexp.MustCompile(`(?i)^\s*clear (?:all )?(?:the |my )?(?:research )?notes` + tail),
		func(m []string) Match { return Match{Kind: NoteClearAll} }},

	// Reading lists, natural language.
	{ListCreate, regexp.MustCompile(`(?i)^\s*create (?:a )?(?:new )?reading list (?:called |named )?["']?(.+?)["']?` + tail),
		func(m []string) Match { return Match{Kind: ListCreate, List: m[1]} }},
	{ListAdd, regexp.MustCompile(`(?i)^\s*add paper\s+(\S+) to (?:the |my )?(?:reading )?list\s+["']?(.+?)["']?` + tail),
		func(m []string) Match { return Match{Kind: ListAdd, Paper: m[1], List: m[2]} }},
	{ListRemove, regexp.MustCompile(`(?i)^\s*remove paper\s+(\S+) from (?:the |my )?(?:reading )?list\s+["']?(.+?)["']?` + tail),
		func(m []string) Match { return Match{Kind: ListRemove, Paper: m[1], List: m[2]} }},
	{ListViewAll, regexp.MustCompile(`(?i)^\s*(?:(?:view|show|list|display) )?(?:all )?(?:the |my )?reading lists` + tail),
		func(m []string) Match { return Match{Kind: ListViewAll} }},
	{ListView, regexp.MustCompile(`(?i)^\s*(?:view|show|display|open) (?:the |my )?reading list\s+["']?(.+?)["']?` + tail),
		func(m []string) Match { return Match{Kind: ListView, List: m[1]} }},
	{ListDelete, regexp.MustCompile(`(?i)^\s*delete (?:the |my )?reading list\s+["']?(.+?)["']?` + tail),
		func(m []string) Match { return Match{Kind: ListDelete, List: m[1]} }},

	// Reading lists, structured form without the ! prefix.
	{ListUsage, regexp.MustCompile(`(?i)^\s*reading_list(?:\s+(\S+))?(?:\s+(\S+))?(?:\s+(\S+))?\s*$`),
		readingListCommand},

	{Related, regexp.MustCompile(`(?i)\b(?:related|similar)\b.*\bpaper\s+#?(\S+?)` + tail),
		func(m []string) Match { return Match{Kind: Related, Paper: m[1]} }},
	{Cite, regexp.MustCompile(`(?i)\b(?:cite|format|citation)\b.*?\bpaper\s+#?(\S+?)(?:\s+(?:in|as|using)\s+(?:the\s+)?([a-z]+)(?:\s+(?:style|format))?)?` + tail),
		func(m []string) Match { return Match{Kind: Cite, Paper: m[1], Style: strings.ToLower(m[2])} }},
	{Bibliography, regexp.MustCompile(`(?i)^\s*(?:(?:show|view|display|give|print|get|list)\s+(?:me\s+)?)?(?:the\s+|my\s+)?bibliography\b(?:.*?\b(apa|mla|chicago|harvard|ieee)\b)?`),
		func(m []string) Match { return Match{Kind: Bibliography, Style: strings.ToLower(m[1])} }},
	{Papers, regexp.MustCompile(`(?i)^\s*(?:list|show|view|display)\s+(?:all\s+)?(?:the\s+|my\s+)?(?:cited\s+)?papers` + tail),
		func(m []string) Match { return Match{Kind: Papers} }},
	{Styles, regexp.MustCompile(`(?i)^\s*(?:(?:list|show|what\s+are)\s+(?:the\s+|all\s+)?)?(?:available\s+)?citation\s+styles` + tail),
		func(m []string) Match { return Match{Kind: Styles} }},
}

// readingListCommand maps "reading_list <action> [name] [index]".
func readingListCommand(m []string) Match {
	action, name, index := strings.ToLower(m[1]), m[2], m[3]
	switch action {
	case "create":
		if name != "" && index == "" {
			return Match{Kind: ListCreate, List: name}
		}
	case "add":
		if name != "" && index != "" {
			return Match{Kind: ListAdd, List: name, Paper: index}
		}
	case "remove":
		if name != "" && index != "" {
			return Match{Kind: ListRemove, List: name, Paper: index}
		}
	case "view":
		if name == "" {
			return Match{Kind: ListViewAll}
		}
		if index == "" {
			return Match{Kind: ListView, List: name}
		}
	case "list":
		if name == "" {
			return Match{Kind: ListViewAll}
		}
	case "delete":
		if name != "" && index == "" {
			return Match{Kind: ListDelete, List: name}
		}
	}
	return Match{Kind: ListUsage}
}

// Rules returns the rule table in priority order.
func Rules() []Rule {
	return append([]Rule(nil), rules...)
}

// Classify returns the first rule match for text, or a Fallback match.
func Classify(text string) Match {
	for _, r := range rules {
		if m := r.Pattern.FindStringSubmatch(text); m != nil {
			return r.Extract(m)
		}
	}
	return Match{Kind: Fallback, Text: text}
}
