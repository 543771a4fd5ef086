// Package ui handles the interactive surfaces punktf shows a human: the
// merge=ask confirmation prompt and the post-deployment summary.
package ui

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
)

// IsInteractive reports whether stdin/stdout look like a real terminal.
// Non-interactive runs (CI, piped output) must never block on a prompt.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// AskOverwrite implements deploy.AskFunc for interactive runs: it prompts
// the user with a y/n confirmation naming the colliding target path. On a
// non-interactive stream, or if the prompt itself errors (e.g. stdin
// closed), it declines, matching the non-interactive default in
// pkg/deploy.Planner.
func AskOverwrite(targetPath string) bool {
	if !IsInteractive() {
		return false
	}

	confirmed := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("Overwrite %s?", targetPath),
		Default: false,
	}

	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false
	}

	return confirmed
}
