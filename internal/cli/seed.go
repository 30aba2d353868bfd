package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/tickets/ticket"
)

// SeedTicket is a ticket to create together with its subtree.
type SeedTicket struct {
	Title       string
	Description string
	Children    []SeedTicket
}

// SamplePlan is a three-level hierarchy for local runs.
var SamplePlan = []SeedTicket{
	{
		Title:       "Project A - core platform",
		Description: "Main system development project",
		Children: []SeedTicket{
			{Title: "Frontend", Description: "Web client implementation", Children: []SeedTicket{
				{Title: "Login page", Description: "Form, validation and error states"},
				{Title: "Ticket list", Description: "Paged list of root tickets"},
			}},
			{Title: "Backend API", Description: "HTTP API development", Children: []SeedTicket{
				{Title: "Authentication", Description: "Token based authentication"},
				{Title: "Rate limiting", Description: "Per client request limits"},
			}},
			{Title: "Database design", Description: "Schema and migrations"},
		},
	},
	{
		Title:       "Project B - maintenance",
		Description: "Maintenance of the existing system",
		Children: []SeedTicket{
			{Title: "Bug fixes", Description: "Critical fixes from production", Children: []SeedTicket{
				{Title: "Memory leak in worker", Description: "Worker grows without bound under load"},
			}},
			{Title: "Performance", Description: "Query and cache tuning"},
		},
	},
	{
		Title:       "Project C - new features",
		Description: "Implementation of new features",
		Children: []SeedTicket{
			{Title: "Notifications", Description: "Email and push notifications"},
		},
	},
}

// Seeder is the part of the ticket service used for seeding.
type Seeder interface {
	CreateTicket(ctx context.Context, title, description string) (*ticket.Ticket, error)
	SetParent(ctx context.Context, id, parentID int64) (*ticket.Ticket, error)
}

// Seed creates plan depth first and returns the number of tickets created.
func Seed(ctx context.Context, s Seeder, plan []SeedTicket) (int, error) {
	return seedLevel(ctx, s, plan, 0)
}

func seedLevel(ctx context.Context, s Seeder, plan []SeedTicket, parentID int64) (int, error) {
	created := 0
	for _, st := range plan {
		t, err := s.CreateTicket(ctx, st.Title, st.Description)
		if err != nil {
			return created, fmt.Errorf("create %q: %w", st.Title, err)
		}
		created++
		if parentID != 0 {
			if _, err := s.SetParent(ctx, t.ID, parentID); err != nil {
				return created, fmt.Errorf("attach %d to %d: %w", t.ID, parentID, err)
			}
		}
		n, err := seedLevel(ctx, s, st.Children, t.ID)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a sample ticket hierarchy",
	Long: `Create three root projects with nested children. Against the memory
backend the data is discarded when the command exits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := app.Config.Logger(app.Err)

		repo, closeRepo, err := openRepository(ctx, app.Config, logger)
		if err != nil {
			return err
		}
		defer closeRepo(context.Background())

		service := ticket.NewService(repo, app.Config.EngineConfig(), logger)
		n, err := Seed(ctx, service, SamplePlan)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.Out, "Seeded %d tickets\n", n)
		return nil
	},
}
