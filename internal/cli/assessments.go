package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// readDocument loads a YAML or JSON file into v. The document goes through a
// generic decode first so v's json tags apply to both formats.
func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func newAssessmentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessments",
		Short: "Build assessments and submit answers",
	}
	cmd.AddCommand(
		newAssessmentsListCmd(a),
		newAssessmentsGetCmd(a),
		newAssessmentsPutCmd(a),
		newAssessmentsSubmitCmd(a),
		newAssessmentsResponsesCmd(a),
	)
	return cmd
}

func newAssessmentsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every assessment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			list, err := c.ListAssessments(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}

func newAssessmentsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB_ID",
		Short: "Show the assessment of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			as, err := c.GetAssessment(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), as)
		},
	}
}

func newAssessmentsPutCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "put JOB_ID",
		Short: "Create or replace a job's assessment from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var draft service.AssessmentDraft
			if err := readDocument(file, &draft); err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			as, err := c.PutAssessment(a.mutationCtx(cmd.Context()), jobID, draft)
			return reportMutation(cmd, as, err)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "assessment document")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAssessmentsSubmitCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "submit JOB_ID",
		Short: "Submit a candidate's answers from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var sub service.Submission
			if err := readDocument(file, &sub); err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := c.SubmitAssessment(a.mutationCtx(cmd.Context()), jobID, sub)
			return reportMutation(cmd, resp, err)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "submission document with candidateId and answers")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAssessmentsResponsesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "responses JOB_ID",
		Short: "List submissions for a job's assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			list, err := c.AssessmentResponses(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
}
