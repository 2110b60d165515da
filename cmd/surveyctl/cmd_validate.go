package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"surveyassist/internal/definition"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a survey definition (JSON or YAML) and list every problem found",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	def, err := definition.LoadFile(args[0])
	if err != nil {
		var defErr *definition.DefinitionError
		if errors.As(err, &defErr) {
			fmt.Fprintf(out, "%s: %d problem(s)\n", args[0], len(defErr.Problems))
			for _, p := range defErr.Problems {
				fmt.Fprintf(out, "  - %s\n", p)
			}
		}
		return err
	}

	fmt.Fprintf(out, "%s: ok\n", args[0])
	fmt.Fprintf(out, "  title:        %s\n", def.Title())
	fmt.Fprintf(out, "  questions:    %d\n", def.Len())
	fmt.Fprintf(out, "  interactions: %d\n", len(def.Rules()))
	if def.AssistEnabled() {
		fmt.Fprintf(out, "  consent:      %t (max %d follow-ups)\n", def.ConsentRequired(), def.MaxFollowup())
	} else {
		fmt.Fprintln(out, "  survey assist disabled")
	}
	return nil
}
