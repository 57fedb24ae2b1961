package cli

import (
	"github.com/kiranshivaraju/hiretrack/internal/client"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/spf13/cobra"
)

func newCandidatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "candidates",
		Aliases: []string{"cand"},
		Short:   "Browse candidates and move them through the pipeline",
	}
	cmd.AddCommand(
		newCandidatesListCmd(a),
		newCandidatesGetCmd(a),
		newCandidatesCreateCmd(a),
		newCandidatesStageCmd(a),
		newCandidatesTimelineCmd(a),
	)
	return cmd
}

func newCandidatesListCmd(a *app) *cobra.Command {
	var (
		q     client.CandidateQuery
		jobID string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List candidates with search, stage and job filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jobID != "" {
				id, err := parseID(jobID)
				if err != nil {
					return err
				}
				q.JobID = id
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			page, err := c.ListCandidates(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match name or email")
	cmd.Flags().StringVar(&q.Stage, "stage", "", "applied, screen, tech, offer, hired or rejected")
	cmd.Flags().StringVar(&jobID, "job", "", "only candidates for this job id")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", 10, "items per page")
	return cmd
}

func newCandidatesGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			cand, err := c.GetCandidate(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cand)
		},
	}
}

func newCandidatesCreateCmd(a *app) *cobra.Command {
	var (
		in    service.CandidateInput
		jobID string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a candidate to a job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := parseID(jobID)
			if err != nil {
				return err
			}
			in.JobID = id
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			cand, err := c.CreateCandidate(a.mutationCtx(cmd.Context()), in)
			return reportMutation(cmd, cand, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "full name")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&jobID, "job", "", "job id")
	f.StringVar(&in.Stage, "stage", "", "initial stage (default applied)")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringSliceVar(&in.Notes, "notes", nil, "comma separated notes")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func newCandidatesStageCmd(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "stage ID STAGE",
		Short: "Move a candidate to another stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := service.CandidatePatch{Stage: &args[1]}
			if note != "" {
				patch.TimelineNote = &note
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			cand, err := c.UpdateCandidate(a.mutationCtx(cmd.Context()), id, patch)
			return reportMutation(cmd, cand, err)
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note for the timeline entry")
	return cmd
}

func newCandidatesTimelineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline ID",
		Short: "Show a candidate's stage history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			tl, err := c.CandidateTimeline(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tl)
		},
	}
}
