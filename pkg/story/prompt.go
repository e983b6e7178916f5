package story

import (
	"fmt"
	"strings"
)

// maxPromptHistory bounds how many prior scenes are replayed to the
// model; LoRa stories are short, the cap just guards token growth.
const maxPromptHistory = 6

// SystemPrompt instructs the model to produce scenes the radio can carry.
func SystemPrompt(theme string) string {
	return fmt.Sprintf(
		"You are narrating a collaborative %s choose-your-own-adventure over a low-bandwidth radio. "+
			"Reply with one short scene (max 150 characters), then exactly three choices on one line "+
			"formatted as '1:first 2:second 3:third'. When the story concludes, write the final scene "+
			"ending with 'THE END' and no choices.", theme)
}

// UserPrompt replays recent history and the players' latest choice.
func UserPrompt(history []string, choice string) string {
	if choice == "" && len(history) == 0 {
		return "Begin the adventure with the opening scene."
	}

	var b strings.Builder
	recent := history
	if len(recent) > maxPromptHistory {
		recent = recent[len(recent)-maxPromptHistory:]
	}
	b.WriteString("Story so far:\n")
	for _, scene := range recent {
		b.WriteString(scene)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "The players chose option %s. Continue the story.", choice)
	return b.String()
}
