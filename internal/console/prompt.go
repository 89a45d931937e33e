package console

import (
	"context"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Printer is a function compatible with logger.Notice
type Printer func(ctx context.Context, msg any, args ...any)

// PromptInput is where QuestionPrompt reads answers from.
var PromptInput io.Reader = os.Stdin

// QuestionPrompt prompts the user with a Yes/No question.
// It returns true if the user answers Yes, false otherwise.
// defaultValue determines the default action if the user just presses Enter ("Y"=Yes, "N"=No, ""=Require Input).
// forceYes if true, immediately returns true without prompting (the -y flag).
func QuestionPrompt(ctx context.Context, printer Printer, question string, defaultValue string, forceYes bool) bool {
	if forceYes {
		return true
	}

	ynPrompt := "[YN]"
	if strings.EqualFold(defaultValue, "y") {
		ynPrompt = "[Yn]"
	} else if strings.EqualFold(defaultValue, "n") {
		ynPrompt = "[yN]"
	}

	printer(ctx, question)
	printer(ctx, ynPrompt)

	// Switch to raw mode to read a single key press
	if f, ok := PromptInput.(*os.File); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			if oldState, err := term.MakeRaw(fd); err == nil {
				defer func() { _ = term.Restore(fd, oldState) }()
			}
		}
	}

	answer := readAnswer(PromptInput, defaultValue)

	if answer {
		printer(ctx, "Answered: {{_Yes_}}Yes{{|-|}}")
	} else {
		printer(ctx, "Answered: {{_No_}}No{{|-|}}")
	}
	return answer
}

func readAnswer(r io.Reader, defaultValue string) bool {
	b := make([]byte, 1)
	for {
		if _, err := r.Read(b); err != nil {
			// Input closed: fall back to the default, or No when there is none
			return strings.EqualFold(defaultValue, "y")
		}

		switch strings.ToLower(string(b[0])) {
		case "\r", "\n":
			if strings.EqualFold(defaultValue, "y") {
				return true
			}
			if strings.EqualFold(defaultValue, "n") {
				return false
			}
		case "y":
			return true
		case "n":
			return false
		}
	}
}
