package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/schedule"
)

func newCheckinCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "checkin <job-id>",
		Short: "Record a check-in for a job (call this from the monitored process)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := id.ParseJobID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.RecordCheckIn(ctx, jobID, time.Now().UTC()); err != nil {
				return err
			}
			fmt.Println("checked in")
			return nil
		},
	}
}

func newRearmCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rearm <job-id>",
		Short: "Clear a job's failure state so the next miss opens a fresh incident",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := id.ParseJobID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ClearFailure(ctx, jobID); err != nil {
				return err
			}
			fmt.Println("re-armed")
			return nil
		},
	}
}

func newJobCmd(configPath *string) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Manage tracked jobs",
	}
	jobCmd.AddCommand(
		newJobAddCmd(configPath),
		newJobListCmd(configPath),
		newJobEventsCmd(configPath),
		newJobRemoveCmd(configPath),
	)
	return jobCmd
}

func newJobAddCmd(configPath *string) *cobra.Command {
	var (
		name        string
		description string
		expr        string
		window      int
		ownerStr    string
		teamStr     string
		groupStr    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a job to track",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ownerID, err := id.ParseUserID(ownerStr)
			if err != nil {
				return err
			}
			if err := schedule.Validate(expr); err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			// Seed the first occurrence from the owner's localized now.
			owner, err := s.GetUser(ctx, ownerID)
			if err != nil {
				return err
			}
			next, err := schedule.NewEvaluator().Next(expr, time.Now().In(owner.Location()))
			if err != nil {
				return err
			}

			opts := []job.Option{
				job.WithDescription(description),
				job.WithTimeWindow(window),
			}
			if teamStr != "" {
				teamID, parseErr := id.ParseTeamID(teamStr)
				if parseErr != nil {
					return parseErr
				}
				opts = append(opts, job.WithTeam(teamID))
			}
			if groupStr != "" {
				groupID, parseErr := id.ParseGroupID(groupStr)
				if parseErr != nil {
					return parseErr
				}
				opts = append(opts, job.WithGroup(groupID))
			}

			j, err := job.New(ownerID, name, expr, next, opts...)
			if err != nil {
				return err
			}
			if err := s.CreateJob(ctx, j); err != nil {
				return err
			}
			fmt.Println(j.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&description, "description", "", "job description")
	cmd.Flags().StringVar(&expr, "schedule", "", "5-field cron expression")
	cmd.Flags().IntVar(&window, "window", 0, "check-in tolerance in minutes after each occurrence")
	cmd.Flags().StringVar(&ownerStr, "owner", "", "owner user ID")
	cmd.Flags().StringVar(&teamStr, "team", "", "team ID to alert instead of the owner")
	cmd.Flags().StringVar(&groupStr, "group", "", "group ID label")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("schedule")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newJobListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			jobs, err := s.ListJobs(ctx, job.ListOpts{})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSCHEDULE\tNEXT RUN\tSTATE")
			now := time.Now().UTC()
			for _, j := range jobs {
				state := "ok"
				switch {
				case j.Failed():
					state = "failed"
				case j.Failing(now):
					state = "failing"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					j.ID, j.Name, j.Schedule, j.NextRun.Format(time.RFC3339), state)
			}
			return w.Flush()
		},
	}
}

func newJobEventsCmd(configPath *string) *cobra.Command {
	var ack bool

	cmd := &cobra.Command{
		Use:   "events <job-id>",
		Short: "Show a job's incident history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := id.ParseJobID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			events, err := s.ListEventsForJob(ctx, jobID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tAT\tSEEN")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n",
					e.ID, e.Kind, e.At.Format(time.RFC3339), e.Seen)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if ack {
				for _, e := range events {
					if e.Seen {
						continue
					}
					if err := s.MarkSeen(ctx, e.ID); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ack, "ack", false, "mark the listed events as seen")
	return cmd
}

func newJobRemoveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <job-id>",
		Short: "Stop tracking a job and drop its alert history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := id.ParseJobID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.DeleteJob(ctx, jobID)
		},
	}
}
