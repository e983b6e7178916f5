package service

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
	}{
		{"help bang", "!help", Command{Kind: CmdHelp}},
		{"help bare", "help", Command{Kind: CmdHelp}},
		{"help uppercase", "  !HELP  ", Command{Kind: CmdHelp}},
		{"adv no theme", "!adv", Command{Kind: CmdStart}},
		{"adv with theme", "!adv horror", Command{Kind: CmdStart, Theme: "horror"}},
		{"start alias", "!start scifi", Command{Kind: CmdStart, Theme: "scifi"}},
		{"start mixed case", "!Start Fantasy", Command{Kind: CmdStart, Theme: "fantasy"}},
		{"choice one", "1", Command{Kind: CmdChoice, Choice: 1}},
		{"choice padded", " 3 ", Command{Kind: CmdChoice, Choice: 3}},
		{"choice out of range", "4", Command{Kind: CmdNone}},
		{"vote", "!vote", Command{Kind: CmdVote}},
		{"quit", "!quit", Command{Kind: CmdQuit}},
		{"end alias", "!end", Command{Kind: CmdQuit}},
		{"status", "!status", Command{Kind: CmdStatus}},
		{"reset is bot only", "!reset", Command{Kind: CmdReset}},
		{"chatter ignored", "hello everyone", Command{Kind: CmdNone}},
		{"advanced is not adv", "!advanced", Command{Kind: CmdNone}},
		{"empty", "", Command{Kind: CmdNone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommand(tt.text)
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSanitizeTheme(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Fantasy", "fantasy"},
		{"sci-fi!", "scifi"},
		{"space_opera", "space_opera"},
		{"  horror  ", "horror"},
		{"1337", ""},
	}
	for _, tt := range tests {
		if got := SanitizeTheme(tt.in); got != tt.want {
			t.Errorf("SanitizeTheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
