package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-instanceselect/pkg/render"
)

// ConfirmConfig configures a yes/no prompt.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// ChoiceConfig describes the control of one tagged field. Filter enables
// type-to-filter, which is how autocomplete fields behave in a terminal.
type ChoiceConfig struct {
	Field    string
	Message  string
	Choices  []render.Choice
	Help     string
	PageSize int
	Filter   bool
}

// PromptDriver abstracts the terminal so rendering can be tested without one.
// Choose returns the value of the picked choice.
type PromptDriver interface {
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Choose(ctx context.Context, cfg ChoiceConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the terminal driver backed by survey.
func NewSurveyDriver() PromptDriver {
	return &surveyDriver{out: os.Stdout}
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{Message: cfg.Message, Help: cfg.Help, Default: cfg.Default}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Choose(ctx context.Context, cfg ChoiceConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(cfg.Choices) == 0 {
		return "", ErrNoChoice
	}

	labels := make([]string, len(cfg.Choices))
	prompt := &survey.Select{Message: cfg.Message, Help: cfg.Help}
	for i, choice := range cfg.Choices {
		labels[i] = ChoiceLabel(choice)
		if choice.Selected {
			prompt.Default = labels[i]
		}
	}
	prompt.Options = labels
	if cfg.PageSize > 0 {
		prompt.PageSize = cfg.PageSize
	}
	if !cfg.Filter {
		prompt.Filter = func(string, string, int) bool { return true }
	}

	var picked int
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", translateSurveyErr(err)
	}
	if picked < 0 || picked >= len(cfg.Choices) {
		return "", ErrNoChoice
	}
	return cfg.Choices[picked].Value, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ChoiceLabel is the prompt text of a choice. Labels repeat across events
// while values never do, so the value is appended when it differs.
func ChoiceLabel(choice render.Choice) string {
	if choice.Value == "" {
		if label := strings.TrimSpace(choice.Label); label != "" {
			return label
		}
		return "(none)"
	}
	if choice.Label == "" || choice.Label == choice.Value {
		return choice.Value
	}
	return choice.Label + " [" + choice.Value + "]"
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
