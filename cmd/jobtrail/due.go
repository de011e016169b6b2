package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jonathan/jobtrail/internal/followup"
	"github.com/jonathan/jobtrail/internal/types"
	"github.com/spf13/cobra"
)

var dueUser string

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show overdue and upcoming follow-ups",
	RunE:  runDue,
}

func init() {
	dueCmd.Flags().StringVar(&dueUser, "user", "", "Owner id (uuid)")
	rootCmd.AddCommand(dueCmd)
}

func runDue(cmd *cobra.Command, _ []string) error {
	owner, err := parseOwner(dueUser)
	if err != nil {
		return err
	}
	rt, err := openRuntime(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer rt.Close()

	overdue, upcoming, err := rt.svc.FollowUps.Due(cmd.Context(), owner)
	if err != nil {
		return err
	}

	jobs := make(map[string]string)
	label := func(fu types.FollowUp) string {
		key := fu.JobID.String()
		if l, ok := jobs[key]; ok {
			return l
		}
		l := key
		if job, err := rt.svc.Pipeline.GetJob(cmd.Context(), owner, fu.JobID); err == nil {
			l = job.Title + " at " + job.Company
		}
		jobs[key] = l
		return l
	}

	out := cmd.OutOrStdout()
	now := time.Now()
	printDue(out, "Overdue", overdue, now, label)
	printDue(out, "Upcoming", upcoming, now, label)
	return nil
}

func printDue(out io.Writer, heading string, fus []types.FollowUp, now time.Time, label func(types.FollowUp) string) {
	fmt.Fprintf(out, "%s (%d)\n", heading, len(fus))
	if len(fus) == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, fu := range fus {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n",
			followup.RelativeDue(fu.ScheduledDate, now), fu.ScheduledDate.Format("2006-01-02"), label(fu), fu.ID)
	}
	_ = w.Flush()
}
