package main

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/MarkoPoloResearchLab/mailadmin/internal/subscribers"
)

// ErrAborted indicates the operator interrupted a prompt.
var ErrAborted = errors.New("mailadmin: prompt aborted")

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Help    string
	Default bool
}

// SelectConfig configures a single-choice prompt.
type SelectConfig struct {
	Message  string
	Options  []string
	Default  int
	PageSize int
}

// InputConfig configures a free-text prompt.
type InputConfig struct {
	Message string
	Default string
}

// Prompter asks the operator questions. The survey implementation talks to
// the terminal; tests substitute scripted answers.
type Prompter interface {
	Confirm(ctx context.Context, config ConfirmConfig) (bool, error)
	Select(ctx context.Context, config SelectConfig) (int, error)
	Input(ctx context.Context, config InputConfig) (string, error)
}

type surveyPrompter struct {
	options []survey.AskOpt
}

func newSurveyPrompter(options ...survey.AskOpt) Prompter {
	return &surveyPrompter{options: options}
}

func (prompter *surveyPrompter) Confirm(ctx context.Context, config ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var answer bool
	prompt := &survey.Confirm{
		Message: config.Message,
		Help:    config.Help,
		Default: config.Default,
	}
	if err := survey.AskOne(prompt, &answer, prompter.options...); err != nil {
		return false, translateSurveyErr(err)
	}
	return answer, nil
}

func (prompter *surveyPrompter) Select(ctx context.Context, config SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var answer int
	prompt := &survey.Select{
		Message: config.Message,
		Options: config.Options,
	}
	if config.PageSize > 0 {
		prompt.PageSize = config.PageSize
	}
	if config.Default >= 0 && config.Default < len(config.Options) {
		prompt.Default = config.Options[config.Default]
	}
	if err := survey.AskOne(prompt, &answer, prompter.options...); err != nil {
		return 0, translateSurveyErr(err)
	}
	return answer, nil
}

func (prompter *surveyPrompter) Input(ctx context.Context, config InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var answer string
	prompt := &survey.Input{
		Message: config.Message,
		Default: config.Default,
	}
	if err := survey.AskOne(prompt, &answer, append(prompter.options, survey.WithValidator(survey.Required))...); err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

// promptConfirmer asks the subscriber table's delete question on the terminal.
// With assumeYes set the question is skipped and answered affirmatively.
type promptConfirmer struct {
	prompter  Prompter
	assumeYes bool
}

func (confirmer promptConfirmer) Confirm(ctx context.Context, confirmation subscribers.Confirmation) (bool, error) {
	if confirmer.assumeYes {
		return true, nil
	}
	confirmed, confirmErr := confirmer.prompter.Confirm(ctx, ConfirmConfig{
		Message: confirmation.Title + " " + confirmation.Text,
		Help:    confirmation.ConfirmLabel,
	})
	if errors.Is(confirmErr, ErrAborted) {
		return false, nil
	}
	return confirmed, confirmErr
}
