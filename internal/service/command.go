package service

import "strings"

// CommandKind is the closed set of things an inbound text can mean.
// Parsing is separated from dispatch so authorization and replies can be
// tested without touching the radio or the store.
type CommandKind int

const (
	CmdNone CommandKind = iota // not a recognized command; ignore silently
	CmdHelp
	CmdStart
	CmdChoice
	CmdVote
	CmdQuit
	CmdStatus
	CmdReset // bot-internal; silently ignored when a player sends it
)

// Command is the result of classifying one inbound message.
type Command struct {
	Kind   CommandKind
	Theme  string // CmdStart only; empty means "use the default"
	Choice int    // CmdChoice only; 1-3
}

// ParseCommand classifies trimmed, case-folded text. Unknown text maps to
// CmdNone rather than an error; on a shared radio channel most traffic is
// ordinary chatter that is none of the bot's business.
func ParseCommand(text string) Command {
	t := strings.ToLower(strings.TrimSpace(text))

	switch t {
	case "!help", "help":
		return Command{Kind: CmdHelp}
	case "!quit", "!end":
		return Command{Kind: CmdQuit}
	case "!vote":
		return Command{Kind: CmdVote}
	case "!status":
		return Command{Kind: CmdStatus}
	case "!reset":
		return Command{Kind: CmdReset}
	case "1", "2", "3":
		return Command{Kind: CmdChoice, Choice: int(t[0] - '0')}
	}

	for _, prefix := range []string{"!adv", "!start"} {
		if t == prefix {
			return Command{Kind: CmdStart}
		}
		if strings.HasPrefix(t, prefix+" ") {
			return Command{Kind: CmdStart, Theme: strings.TrimSpace(t[len(prefix)+1:])}
		}
	}

	return Command{Kind: CmdNone}
}

// SanitizeTheme reduces a requested theme to lowercase letters and
// underscores, capped at 50 bytes. Anything else is stripped, so garbled
// radio input degrades to an unknown theme instead of junk state.
func SanitizeTheme(theme string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(theme)) {
		if (r >= 'a' && r <= 'z') || r == '_' {
			b.WriteRune(r)
		}
		if b.Len() >= 50 {
			break
		}
	}
	return b.String()
}
