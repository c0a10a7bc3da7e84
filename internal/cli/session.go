package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vizhost/vizhost/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved visualization sessions",
		Long: `Manage saved visualization sessions.

A session is a named snapshot of every instance a running host had live:
graph data, view state, creation config, and the active theme. Sessions
are written by POST /api/sessions on a running server; these commands
inspect and prune what that leaves behind.`,
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionDeleteCommand())

	return cmd
}

// withSessionStore opens the configured store, runs fn, and closes it.
func (c *CLI) withSessionStore(ctx context.Context, fn func(context.Context, session.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := newSessionStore(ctx, cfg.Sessions)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

// sessionListCommand creates the "session list" subcommand.
func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSessionStore(cmd.Context(), func(ctx context.Context, store session.Store) error {
				summaries, err := store.List(ctx)
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				if len(summaries) == 0 {
					printInfo("No saved sessions")
					printNextStep("Save one from a running host", "curl -X POST localhost:8780/api/sessions -d '{\"name\":\"...\"}'")
					return nil
				}
				for _, s := range summaries {
					name := s.Name
					if name == "" {
						name = StyleDim.Render("(unnamed)")
					}
					fmt.Printf("%s  %s\n", StyleValue.Render(name), StyleDim.Render(s.ID))
					printDetail("%d instance(s) · updated %s", s.Instances, formatRelativeTime(s.UpdatedAt))
				}
				return nil
			})
		},
	}
}

// sessionShowCommand creates the "session show" subcommand. Without an ID
// argument it opens an interactive picker.
func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a saved session's contents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSessionStore(cmd.Context(), func(ctx context.Context, store session.Store) error {
				id, err := resolveSessionID(ctx, store, args)
				if err != nil || id == "" {
					return err
				}
				sess, err := store.Get(ctx, id)
				if err != nil {
					return fmt.Errorf("load session %s: %w", id, err)
				}
				printSession(sess)
				return nil
			})
		},
	}
}

// resolveSessionID returns the ID from args, or runs the picker. An empty
// return with nil error means the user cancelled.
func resolveSessionID(ctx context.Context, store session.Store, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	summaries, err := store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}
	if len(summaries) == 0 {
		printInfo("No saved sessions")
		return "", nil
	}
	sel, err := pickSession(summaries)
	if err != nil {
		return "", err
	}
	if sel == nil {
		return "", nil
	}
	return sel.ID, nil
}

// printSession prints one session's full contents.
func printSession(sess *session.Session) {
	name := sess.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Println(StyleTitle.Render(name))
	printKeyValue("ID", sess.ID)
	printKeyValue("Created", sess.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Updated", sess.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if len(sess.Theme) > 0 {
		printKeyValue("Theme", fmt.Sprintf("%d variable(s)", len(sess.Theme)))
	}
	printNewline()

	if len(sess.Instances) == 0 {
		printInfo("No instances in this session")
		return
	}
	for _, inst := range sess.Instances {
		physics := "off"
		if inst.View.Physics {
			physics = "on"
		}
		fmt.Println("  " + StyleValue.Render(inst.ID))
		printDetail("%d nodes · %d edges · %s layout · physics %s",
			len(inst.Data.Nodes), len(inst.Data.Edges), inst.View.Layout, physics)
		if n := len(inst.View.Highlighted); n > 0 {
			printDetail("%d node(s) highlighted", n)
		}
	}
}

// sessionDeleteCommand creates the "session delete" subcommand.
func (c *CLI) sessionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSessionStore(cmd.Context(), func(ctx context.Context, store session.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("delete session %s: %w", args[0], err)
				}
				printSuccess("Deleted session %s", args[0])
				return nil
			})
		},
	}
}
