package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"learnspace/models"
	"learnspace/users"

	"github.com/spf13/cobra"
)

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect and decide booking requests",
	}

	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the admin queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *models.Status
			if status != "" {
				st, err := models.ParseQueueStatus(status)
				if err != nil {
					return err
				}
				filter = &st
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROOM\tUSER\tROLE\tDATE\tTIME\tSTATUS")
			for _, r := range app.requests.List(cmd.Context()) {
				if filter != nil && r.Status != *filter {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Room, r.UserID, r.Role, r.Date, r.Time, r.Status)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "only show requests with this status (pending, approved, rejected)")

	decide := &cobra.Command{
		Use:   "decide <id> <approved|rejected>",
		Short: "Approve or reject a request and notify the requester",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := models.ParseQueueStatus(args[1])
			if err != nil {
				return err
			}
			d, err := app.requests.Decide(cmd.Context(), args[0], st)
			if err != nil {
				return err
			}
			fmt.Printf("Request %s is now %s\n", d.Request.ID, d.Request.Status)
			if d.NotifyErr != nil {
				fmt.Printf("warning: email not sent: %v\n", d.NotifyErr)
			}
			return nil
		},
	}

	cmd.AddCommand(list, decide)
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts",
	}

	var in users.NewUser
	var role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create an account, e.g. the first admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Role = models.Role(role)
			u, err := users.NewService(app.store, app.logger).Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s (%s, %s)\n", u.ID, u.Name, u.Role)
			return nil
		},
	}
	add.Flags().StringVar(&in.ID, "id", "", "login id")
	add.Flags().StringVar(&in.Name, "name", "", "display name")
	add.Flags().StringVar(&in.Email, "email", "", "email address")
	add.Flags().StringVar(&in.Password, "password", "", "initial password")
	add.Flags().StringVar(&role, "role", string(models.RoleAdmin), "Student, Faculty, Organizer or Admin")
	_ = add.MarkFlagRequired("id")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}
