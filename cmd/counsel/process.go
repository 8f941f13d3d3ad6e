package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/counsel/internal/delivery"
	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/processor"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

type processOutput struct {
	SessionSummary    *session.Summary    `json:"session_summary"`
	FollowUpEmail     *session.FollowUp   `json:"follow_up_email"`
	KeyTakeaways      extractor.Takeaways `json:"key_takeaways"`
	EmailSent         *delivery.Receipt   `json:"email_sent,omitempty"`
	EmailTemplatePath string              `json:"email_template_path,omitempty"`
}

func processCmd() *cobra.Command {
	var send, saveTemplate bool
	cmd := &cobra.Command{
		Use:   "process [transcript.json|-]",
		Short: "Process one session transcript and print the summary and follow-up",
		Long: `Process a session transcript given as JSON:

  {"session_id": "...", "date": "2024-03-05", "participants": [...], "transcript": "..."}

Examples:
  counsel process session.json
  counsel process --send --save-template session.json
  cat session.json | counsel process -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var t session.Transcript
			if err := json.Unmarshal(data, &t); err != nil {
				return fmt.Errorf("parse transcript: %w", err)
			}

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.processor(nil).Process(cmd.Context(), processor.Request{
				Transcript:        t,
				SendEmail:         &send,
				SaveEmailTemplate: saveTemplate,
			})
			if err != nil {
				return fmt.Errorf("failed to process session: %w", err)
			}
			return printJSON(cmd, processOutput{
				SessionSummary:    out.Result.Summary,
				FollowUpEmail:     out.Result.Message,
				KeyTakeaways:      out.Result.Takeaways,
				EmailSent:         out.Receipt,
				EmailTemplatePath: out.TemplatePath,
			})
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "deliver the follow-up email")
	cmd.Flags().BoolVar(&saveTemplate, "save-template", false, "write the follow-up to EMAIL_TEMPLATE_DIR")
	return cmd
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [transcript.txt|-]",
		Short: "Extract career goals and action items from raw transcript text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			text := strings.TrimSpace(string(data))
			if text == "" {
				return fmt.Errorf("transcript is empty")
			}

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return printJSON(cmd, a.extractor.Extract(cmd.Context(), text))
		},
	}
}
