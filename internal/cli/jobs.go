package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/hiretrack/internal/client"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/spf13/cobra"
)

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

// optString returns a pointer to the flag's value when it was set.
func optString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optStrings(cmd *cobra.Command, name string) *[]string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetStringSlice(name)
	return &v
}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and manage job postings",
	}
	cmd.AddCommand(
		newJobsListCmd(a),
		newJobsGetCmd(a),
		newJobsCreateCmd(a),
		newJobsUpdateCmd(a),
		newJobsReorderCmd(a),
		newJobsDeleteCmd(a),
	)
	return cmd
}

func newJobsListCmd(a *app) *cobra.Command {
	var q client.JobQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs with search, status filter, sort and pagination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			page, err := c.ListJobs(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match title, description or tags")
	cmd.Flags().StringVar(&q.Status, "status", "", "active or archived")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "order, title or created")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PageSize, "page-size", 10, "items per page")
	return cmd
}

func newJobsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one job",
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
			job, err := c.GetJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), job)
		},
	}
}

func newJobsCreateCmd(a *app) *cobra.Command {
	var in service.JobInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			job, err := c.CreateJob(a.mutationCtx(cmd.Context()), in)
			return reportMutation(cmd, job, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "job title")
	f.StringVar(&in.Slug, "slug", "", "URL slug (derived from the title when empty)")
	f.StringVar(&in.Status, "status", "", "active or archived")
	f.StringSliceVar(&in.Tags, "tags", nil, "comma separated tags")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringSliceVar(&in.Requirements, "requirements", nil, "comma separated requirements")
	f.StringVar(&in.Location, "location", "", "location")
	f.StringVar(&in.Salary, "salary", "", "salary range")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newJobsUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a job; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := service.JobPatch{
				Title:        optString(cmd, "title"),
				Slug:         optString(cmd, "slug"),
				Status:       optString(cmd, "status"),
				Tags:         optStrings(cmd, "tags"),
				Description:  optString(cmd, "description"),
				Requirements: optStrings(cmd, "requirements"),
				Location:     optString(cmd, "location"),
				Salary:       optString(cmd, "salary"),
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			job, err := c.UpdateJob(a.mutationCtx(cmd.Context()), id, patch)
			return reportMutation(cmd, job, err)
		},
	}
	f := cmd.Flags()
	f.String("title", "", "job title")
	f.String("slug", "", "URL slug")
	f.String("status", "", "active or archived")
	f.StringSlice("tags", nil, "comma separated tags")
	f.String("description", "", "description")
	f.StringSlice("requirements", nil, "comma separated requirements")
	f.String("location", "", "location")
	f.String("salary", "", "salary range")
	return cmd
}

func newJobsReorderCmd(a *app) *cobra.Command {
	var from int
	cmd := &cobra.Command{
		Use:   "reorder ID TO",
		Short: "Move a job to a new position, shifting the jobs in between",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			online := c.Queue() == nil || c.Queue().Online()
			if from == 0 && online && !a.v.GetBool(keyQueue) {
				if cur, err := c.GetJob(cmd.Context(), id); err == nil {
					from = cur.Order
				}
			}
			job, err := c.ReorderJob(a.mutationCtx(cmd.Context()), id, from, to)
			return reportMutation(cmd, job, err)
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "current position, looked up when omitted")
	return cmd
}

func newJobsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a job",
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
			return reportMutation(cmd, nil, c.DeleteJob(a.mutationCtx(cmd.Context()), id))
		},
	}
}
