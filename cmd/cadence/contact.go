package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/cadence/workflow"
)

func contactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage owner contacts",
	}
	cmd.AddCommand(contactAddCmd(), contactListCmd())
	return cmd
}

func contactAddCmd() *cobra.Command {
	var (
		tags    []string
		vendor  bool
		private bool
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a contact",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				c := &workflow.Contact{
					Name:             strings.Join(args, " "),
					CompanyTags:      tags,
					ThirdPartyVendor: vendor,
					Private:          private,
					PrivateOwnerID:   flagAs,
				}
				if private && flagAs == "" {
					return fmt.Errorf("--private requires --as to set the owning account")
				}
				if _, err := app.Store.CreateContact(ctx, c); err != nil {
					return err
				}
				fmt.Printf("Created %s\n", c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&tags, "company", nil, "Internal company affiliation tag (repeatable)")
	cmd.Flags().BoolVar(&vendor, "vendor", false, "Mark as a third-party vendor")
	cmd.Flags().BoolVar(&private, "private", false, "Visible only to the --as account")
	return cmd
}

func contactListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List contacts visible to the caller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				contacts, err := app.Store.ListContacts(ctx)
				if err != nil {
					return err
				}
				for _, c := range contacts {
					if c.Private && !flagAdmin && c.PrivateOwnerID != flagAs {
						continue
					}
					kind := "personal"
					if c.IsInternalStaff() {
						kind = "staff (" + strings.Join(c.CompanyTags, ",") + ")"
					} else if c.ThirdPartyVendor {
						kind = "vendor"
					}
					fmt.Printf("%s  %s  [%s]\n", c.ID, c.Name, kind)
				}
				return nil
			})
		},
	}
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	var (
		deadline string
		buffer   int
	)
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project with a deadline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *App) error {
				due, err := time.ParseInLocation("2006-01-02", deadline, time.Local)
				if err != nil {
					return fmt.Errorf("parse deadline: %w", err)
				}
				p := &workflow.Project{
					Name:       strings.Join(args, " "),
					Deadline:   due,
					BufferDays: buffer,
				}
				if _, err := app.Store.CreateProject(ctx, p); err != nil {
					return err
				}
				fmt.Printf("Created %s\n", p.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&deadline, "deadline", "", "Project deadline (YYYY-MM-DD)")
	add.Flags().IntVar(&buffer, "buffer", 0, "Safety buffer in days before the deadline")
	_ = add.MarkFlagRequired("deadline")

	cmd.AddCommand(add)
	return cmd
}
