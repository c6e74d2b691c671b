package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Arch199/crontrack"
	"github.com/Arch199/crontrack/id"
	"github.com/Arch199/crontrack/notify"
	"github.com/Arch199/crontrack/user"
)

func newUserCmd(configPath *string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage alert recipients",
	}
	userCmd.AddCommand(
		newUserAddCmd(configPath),
		newTeamAddCmd(configPath),
		newTeamJoinCmd(configPath),
	)
	return userCmd
}

func newUserAddCmd(configPath *string) *cobra.Command {
	var (
		name     string
		email    string
		phone    string
		timezone string
		method   string
		buffer   int
		personal bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an alert recipient",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := user.AlertMethod(method)
			switch m {
			case user.MethodEmail, user.MethodSMS, user.MethodDisabled:
			default:
				return fmt.Errorf("%w: alert method %q", crontrack.ErrInvalidConfiguration, method)
			}
			if m == user.MethodSMS {
				if err := notify.ValidatePhone(phone); err != nil {
					return err
				}
			}
			if timezone != "" {
				if _, err := time.LoadLocation(timezone); err != nil {
					return fmt.Errorf("%w: timezone %q", crontrack.ErrInvalidConfiguration, timezone)
				}
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

			u := &user.User{
				Entity:         crontrack.NewEntity(),
				ID:             id.NewUserID(),
				Name:           name,
				Email:          email,
				Phone:          phone,
				Timezone:       timezone,
				AlertMethod:    m,
				AlertBuffer:    buffer,
				PersonalAlerts: personal,
			}
			if err := s.CreateUser(ctx, u); err != nil {
				return err
			}
			fmt.Println(u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&phone, "phone", "", "E.164 phone number (required for sms)")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for schedule evaluation")
	cmd.Flags().StringVar(&method, "method", "email", "alert method: email, sms, or disabled")
	cmd.Flags().IntVar(&buffer, "buffer", 60, "cooldown in minutes between repeat alerts per job")
	cmd.Flags().BoolVar(&personal, "personal-alerts", true, "alert on teamless jobs owned by this user")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newTeamAddCmd(configPath *string) *cobra.Command {
	var (
		name       string
		creatorStr string
	)

	cmd := &cobra.Command{
		Use:   "team-add",
		Short: "Create an alert team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			creatorID, err := id.ParseUserID(creatorStr)
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

			t := &user.Team{
				Entity:    crontrack.NewEntity(),
				ID:        id.NewTeamID(),
				Name:      name,
				CreatorID: creatorID,
			}
			if err := s.CreateTeam(ctx, t); err != nil {
				return err
			}
			// The creator joins their own team with alerts on.
			if err := s.AddMember(ctx, &user.Membership{
				UserID:   creatorID,
				TeamID:   t.ID,
				AlertsOn: true,
			}); err != nil {
				return err
			}
			fmt.Println(t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "team name")
	cmd.Flags().StringVar(&creatorStr, "creator", "", "creator user ID")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("creator")
	return cmd
}

func newTeamJoinCmd(configPath *string) *cobra.Command {
	var alertsOn bool

	cmd := &cobra.Command{
		Use:   "team-join <team-id> <user-id>",
		Short: "Add a user to a team",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, err := id.ParseTeamID(args[0])
			if err != nil {
				return err
			}
			userID, err := id.ParseUserID(args[1])
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

			return s.AddMember(ctx, &user.Membership{
				UserID:   userID,
				TeamID:   teamID,
				AlertsOn: alertsOn,
			})
		},
	}

	cmd.Flags().BoolVar(&alertsOn, "alerts-on", true, "receive this team's alerts")
	return cmd
}
