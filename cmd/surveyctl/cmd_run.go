package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"surveyassist/internal/definition"
	"surveyassist/internal/flow"
	"surveyassist/internal/gateway"
	"surveyassist/internal/model"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var useMock bool

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Answer a survey in the terminal, including consent and follow-up questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey(cmd, opts, args[0], useMock)
		},
	}
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the built-in mock classifier instead of the configured gateway")
	return cmd
}

func runSurvey(cmd *cobra.Command, opts *rootOptions, path string, useMock bool) error {
	out := cmd.OutOrStdout()
	logger := opts.logger(cmd)

	def, err := definition.LoadFile(path)
	if err != nil {
		return err
	}

	var classifier gateway.Classifier = gateway.NewMock()
	if !useMock {
		classifier = gateway.New(opts.cfg.Gateway)
	}

	engine := flow.NewEngine(def, classifier, opts.cfg.Gateway.Timeout(), logger)
	sess := model.NewAnswerSession(uuid.New().String(), "surveyctl", time.Now())
	ask := newPrompter()

	fmt.Fprintf(out, "%s\n\n", def.Title())
	step, err := engine.Start(sess)
	if err != nil {
		return err
	}
	for !step.Completed {
		q := step.Question
		if step.State == model.StateAwaitingFollowup && q.Title != "" {
			fmt.Fprintf(out, "[%s]\n", q.Title)
		}
		answer, err := ask.Ask(*q)
		if err != nil {
			return fmt.Errorf("failed to read answer to %s: %w", q.QuestionID, err)
		}

		next, err := engine.Submit(cmd.Context(), sess, q.QuestionID, answer)
		var invalid *flow.InvalidAnswerError
		if errors.As(err, &invalid) {
			fmt.Fprintf(out, "  %s\n", invalid.Reason)
			continue
		}
		if err != nil {
			return err
		}
		step = next
	}

	fmt.Fprintln(out, "Summary")
	for _, a := range engine.Summary(sess) {
		fmt.Fprintf(out, "  %s\n    %s\n", a.QuestionText, a.Response)
	}
	for _, in := range sess.Interactions {
		switch {
		case in.ErrorKind != "":
			fmt.Fprintf(out, "%s after %s: %s\n", in.Kind, in.AfterQuestionID, in.ErrorKind)
		case in.Result != nil && in.Result.Code != "":
			fmt.Fprintf(out, "%s after %s: %s %s\n", in.Kind, in.AfterQuestionID, in.Result.Code, in.Result.Description)
		default:
			fmt.Fprintf(out, "%s after %s: unresolved\n", in.Kind, in.AfterQuestionID)
		}
	}
	return nil
}
