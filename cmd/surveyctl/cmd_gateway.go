package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"surveyassist/internal/gateway"
	"surveyassist/internal/model"
	"surveyassist/internal/sanitize"
)

// Gateway actions
const (
	actionLookup   = "lookup"
	actionClassify = "classify"
	actionBoth     = "both"
)

type gatewayOptions struct {
	kind           string
	action         string
	url            string
	jobTitle       string
	jobDescription string
	orgDescription string
}

func newGatewayCmd(root *rootOptions) *cobra.Command {
	opts := &gatewayOptions{}

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Call the classification gateway directly and print the JSON response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGateway(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.kind, "type", model.ClassificationSIC, "classification type (sic|soc)")
	cmd.Flags().StringVar(&opts.action, "action", actionClassify, "what to call (lookup|classify|both)")
	cmd.Flags().StringVar(&opts.url, "url", "", "gateway base URL, overrides SURVEY_ASSIST_API_URL")
	cmd.Flags().StringVar(&opts.jobTitle, "job-title", "Kitchen Assistant", "job title")
	cmd.Flags().StringVar(&opts.jobDescription, "job-description", "Assisting in the kitchen with food preparation, cleaning, and other tasks as required.", "job description")
	cmd.Flags().StringVar(&opts.orgDescription, "org-description", "A local school.", "organisation description")
	return cmd
}

func runGateway(cmd *cobra.Command, root *rootOptions, opts *gatewayOptions) error {
	kind := strings.ToLower(opts.kind)
	if kind != model.ClassificationSIC && kind != model.ClassificationSOC {
		return fmt.Errorf("unknown classification type %q", opts.kind)
	}
	action := strings.ToLower(opts.action)
	if action != actionLookup && action != actionClassify && action != actionBoth {
		return fmt.Errorf("unknown action %q", opts.action)
	}

	cfg := *root.cfg.Gateway
	if opts.url != "" {
		cfg.BaseURL = strings.TrimRight(opts.url, "/")
	}
	if !cfg.IsEnabled() {
		return errors.New("no gateway configured: set SURVEY_ASSIST_API_URL or --url")
	}
	client := gateway.NewClient(&cfg)
	logger := root.logger(cmd)
	ctx := cmd.Context()

	out := map[string]any{}
	if action == actionLookup || action == actionBoth {
		// sic looks up the organisation, soc the job title
		description := opts.orgDescription
		if kind == model.ClassificationSOC {
			description = opts.jobTitle
		}
		result, err := lookup(ctx, client, kind, description)
		if err != nil {
			logger.Warn("lookup failed", "kind", kind, "err", err)
			return err
		}
		out["lookup"] = result
	}
	if action == actionClassify || action == actionBoth {
		fields := []model.InputField{
			{Field: "job_title", Value: sanitize.Clean(opts.jobTitle, sanitize.DefaultMaxLen)},
			{Field: "job_description", Value: sanitize.Clean(opts.jobDescription, sanitize.DefaultMaxLen)},
			{Field: "organisation_activity", Value: sanitize.Clean(opts.orgDescription, sanitize.DefaultMaxLen)},
		}
		result, err := client.Lookup(ctx, kind, fields)
		if err != nil {
			logger.Warn("classify failed", "kind", kind, "err", err)
			return err
		}
		out["classify"] = result
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func lookup(ctx context.Context, client *gateway.Client, kind, description string) (*gateway.LookupResult, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%s lookup needs a description", kind)
	}
	return client.LookupDescription(ctx, kind, description)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
