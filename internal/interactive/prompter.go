// file: internal/interactive/prompter.go
// version: 1.0.0
// guid: 84c1f2a9-6e3b-4d05-b7a8-1f9e0c2d5b73

package interactive

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// Prompter is the blocking operator I/O used by the selector.
type Prompter interface {
	Select(message string, options []string) (int, error)
	Input(message string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

// SurveyPrompter renders prompts on the terminal.
type SurveyPrompter struct {
	PageSize int
	Opts     []survey.AskOpt
}

func (p SurveyPrompter) Select(message string, options []string) (int, error) {
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: p.PageSize,
	}
	var idx int
	if err := survey.AskOne(prompt, &idx, p.Opts...); err != nil {
		return 0, fmt.Errorf("selection: %w", err)
	}
	return idx, nil
}

func (p SurveyPrompter) Input(message string) (string, error) {
	var answer string
	if err := survey.AskOne(&survey.Input{Message: message}, &answer, p.Opts...); err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	return answer, nil
}

func (p SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	answer := def
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer, p.Opts...); err != nil {
		return false, fmt.Errorf("confirm: %w", err)
	}
	return answer, nil
}
