package main

import (
	"fmt"
	"os"
	"strings"

	"graft/internal/logging"
	"graft/internal/repo"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "graft",
	Short: "Graft is a workspace-first version control system",
	Long: `Graft records every edit as a commit in a content-addressed graph.
The working copy is itself a commit that is amended as files change, so
there is no staging area and no dirty state to lose.`,
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new graft repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			r, err := repo.Init(cmd.Context(), dir)
			if err != nil {
				return fmt.Errorf("initializing repository: %w", err)
			}
			defer r.Close()

			fmt.Println("Initialized empty graft repository in", dir)
			return nil
		},
	}

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show the revision log",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			entries, err := r.Log(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading log: %w", err)
			}

			printLog(r.CurrentWorkspace(), entries)
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show working copy changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			changes, err := r.WorkingCopyChanges(cmd.Context())
			if err != nil {
				return fmt.Errorf("getting status: %w", err)
			}

			if len(changes) == 0 {
				fmt.Println("The working copy is clean")
				return nil
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("Working copy changes:")
			for _, c := range changes {
				switch c.Status {
				case "added":
					fmt.Printf("  %s %s\n", green("A"), c.Path)
				case "modified":
					fmt.Printf("  %s %s\n", yellow("M"), c.Path)
				case "deleted":
					fmt.Printf("  %s %s\n", red("D"), c.Path)
				}
			}
			return nil
		},
	}

	var diffCmd = &cobra.Command{
		Use:   "diff [paths...]",
		Short: "Show changes in the working copy or another revision",
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, _ := cmd.Flags().GetString("revision")

			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			if revision != "" {
				text, err := r.RevisionDiff(cmd.Context(), revision)
				if err != nil {
					return fmt.Errorf("diffing revision %s: %w", revision, err)
				}
				printColoredDiff(text)
				return nil
			}

			if len(args) == 0 {
				text, err := r.Diff(cmd.Context())
				if err != nil {
					return fmt.Errorf("diffing working copy: %w", err)
				}
				printColoredDiff(text)
				return nil
			}

			for _, path := range args {
				text, err := r.FileDiff(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("diffing %s: %w", path, err)
				}
				printColoredDiff(text)
			}
			return nil
		},
	}

	var showCmd = &cobra.Command{
		Use:   "show [path]",
		Short: "Show a changed file's contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, _ := cmd.Flags().GetBool("before")

			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			result, err := r.FileContents(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			if before {
				fmt.Print(result.Before)
			} else {
				fmt.Print(result.After)
			}
			return nil
		},
	}

	var newCmd = &cobra.Command{
		Use:   "new [revision]",
		Short: "Create a new empty change on top of a revision",
		Long:  `Creates a new empty change and makes it the working copy. With no argument the new change goes on top of the current working copy.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			revision := ""
			if len(args) > 0 {
				revision = args[0]
			}

			if err := r.NewChange(cmd.Context(), revision); err != nil {
				return fmt.Errorf("creating change: %w", err)
			}

			fmt.Println("Working copy now at a new empty change")
			return nil
		},
	}

	var describeCmd = &cobra.Command{
		Use:   "describe [revision]",
		Short: "Set the description of a working-copy commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")

			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			revision := ""
			if len(args) > 0 {
				revision = args[0]
			}
			if revision == "" {
				snap := r.CurrentSnapshot()
				revision = string(snap.View.Workspaces[r.CurrentWorkspace()])
			}

			if err := r.Describe(cmd.Context(), revision, message); err != nil {
				return fmt.Errorf("describing revision: %w", err)
			}

			fmt.Println("Description updated")
			return nil
		},
	}

	var snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Record working copy changes as a commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			changed, err := r.SnapshotWorkingCopy(cmd.Context())
			if err != nil {
				return fmt.Errorf("snapshotting working copy: %w", err)
			}

			if changed {
				fmt.Println("Recorded working copy changes")
			} else {
				fmt.Println("Nothing changed")
			}
			return nil
		},
	}

	// Bookmark commands
	var bookmarkCmd = &cobra.Command{
		Use:   "bookmark",
		Short: "Manage bookmarks",
		Long:  `Bookmarks are named pointers to revisions, like branches that do not move on their own.`,
	}

	var listBookmarksCmd = &cobra.Command{
		Use:   "list",
		Short: "List bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			bookmarks, err := r.Bookmarks(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing bookmarks: %w", err)
			}

			if len(bookmarks) == 0 {
				fmt.Println("No bookmarks")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for _, b := range bookmarks {
				if b.IsLocal {
					fmt.Println(b.Name)
				} else {
					fmt.Println(yellow(b.Name))
				}
			}
			return nil
		},
	}

	var setBookmarkCmd = &cobra.Command{
		Use:   "set [name]",
		Short: "Point a bookmark at a revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revision, _ := cmd.Flags().GetString("revision")
			allowBackwards, _ := cmd.Flags().GetBool("allow-backwards")
			ignoreImmutable, _ := cmd.Flags().GetBool("ignore-immutable")

			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			if revision == "" {
				snap := r.CurrentSnapshot()
				revision = string(snap.View.Workspaces[r.CurrentWorkspace()])
			}

			if err := r.SetBookmark(cmd.Context(), args[0], revision, allowBackwards, ignoreImmutable); err != nil {
				return fmt.Errorf("setting bookmark: %w", err)
			}

			fmt.Printf("Bookmark %s set\n", args[0])
			return nil
		},
	}

	// Workspace commands
	var workspaceCmd = &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
		Long:  `Workspaces are working copies of the same repository, each with its own working-copy commit.`,
	}

	var listWorkspacesCmd = &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			workspaces, err := r.Workspaces(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing workspaces: %w", err)
			}

			for _, ws := range workspaces {
				marker := " "
				if ws.IsCurrent {
					marker = "*"
				}
				fmt.Printf("%s %s  %s  %s\n", marker, ws.Name, ws.CommitID[:12], ws.RootPath)
			}
			return nil
		},
	}

	var addWorkspaceCmd = &cobra.Command{
		Use:   "add [destination]",
		Short: "Create a new workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			revisions, _ := cmd.Flags().GetString("revision")

			r, err := openAndSnapshot(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.WorkspaceAdd(cmd.Context(), args[0], name, revisions); err != nil {
				return fmt.Errorf("adding workspace: %w", err)
			}

			fmt.Println("Created workspace in", args[0])
			return nil
		},
	}

	var forgetWorkspaceCmd = &cobra.Command{
		Use:   "forget [name]",
		Short: "Stop tracking a workspace",
		Long:  `Removes the workspace from the repository view. Files in its directory are left alone.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			if err := r.WorkspaceForget(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("forgetting workspace: %w", err)
			}

			fmt.Println("Forgot workspace", args[0])
			return nil
		},
	}

	// Operation log commands
	var opCmd = &cobra.Command{
		Use:   "op",
		Short: "Work with the operation log",
	}

	var opLogCmd = &cobra.Command{
		Use:   "log",
		Short: "Show the operation log",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			ops, err := r.Operations(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading operation log: %w", err)
			}

			cyan := color.New(color.FgCyan).SprintFunc()
			for _, op := range ops {
				marker := " "
				if op.IsCurrent {
					marker = "@"
				}
				fmt.Printf("%s %s  %s  %s\n", marker, cyan(op.ID), op.Timestamp, op.Description)
			}
			return nil
		},
	}

	// Add flags
	diffCmd.Flags().StringP("revision", "r", "", "Diff this revision against its first parent")
	showCmd.Flags().Bool("before", false, "Show the parent side instead of the working copy side")
	describeCmd.Flags().StringP("message", "m", "", "The new description")
	describeCmd.MarkFlagRequired("message")
	setBookmarkCmd.Flags().StringP("revision", "r", "", "Target revision (defaults to the working copy)")
	setBookmarkCmd.Flags().Bool("allow-backwards", false, "Allow moving the bookmark to an ancestor of its current target")
	setBookmarkCmd.Flags().Bool("ignore-immutable", false, "Allow targeting an immutable revision")
	addWorkspaceCmd.Flags().String("name", "", "Workspace name (defaults to the destination directory name)")
	addWorkspaceCmd.Flags().StringP("revision", "r", "", "Comma-separated parent revisions for the new working copy")

	// Add commands to root
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(bookmarkCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(opCmd)

	// Add bookmark subcommands
	bookmarkCmd.AddCommand(listBookmarksCmd)
	bookmarkCmd.AddCommand(setBookmarkCmd)

	// Add workspace subcommands
	workspaceCmd.AddCommand(listWorkspacesCmd)
	workspaceCmd.AddCommand(addWorkspaceCmd)
	workspaceCmd.AddCommand(forgetWorkspaceCmd)

	// Add operation log subcommands
	opCmd.AddCommand(opLogCmd)
}

func openRepo(cmd *cobra.Command) (*repo.Repo, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	logger, err := logging.NewDevelopment("warn")
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	r, err := repo.Open(cmd.Context(), cwd, repo.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// openAndSnapshot opens the repository and records any pending working
// copy changes first, so commands act on what is actually on disk.
func openAndSnapshot(cmd *cobra.Command) (*repo.Repo, error) {
	r, err := openRepo(cmd)
	if err != nil {
		return nil, err
	}

	if _, err := r.SnapshotWorkingCopy(cmd.Context()); err != nil {
		r.Close()
		return nil, fmt.Errorf("snapshotting working copy: %w", err)
	}
	return r, nil
}

func printLog(current string, entries []repo.RevisionInfo) {
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	for _, e := range entries {
		if e.IsRoot {
			fmt.Printf("◆  %s root\n", yellow(e.CommitID))
			continue
		}

		marker := "○"
		for _, ws := range e.Workspaces {
			if ws == current {
				marker = "@"
				break
			}
		}

		line := fmt.Sprintf("%s  %s %s %s", marker, cyan(e.ChangeID), e.AuthorEmail, e.Timestamp)
		if len(e.Bookmarks) > 0 {
			line += " " + green(strings.Join(e.Bookmarks, " "))
		}
		line += " " + yellow(e.CommitID)
		fmt.Println(line)

		description := e.Description
		if description == "" {
			description = "(no description set)"
		}
		fmt.Printf("   %s\n", description)
	}
}

func printColoredDiff(diff string) {
	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	header := color.New(color.FgCyan)

	lines := strings.Split(diff, "\n")
	for _, line := range lines {
		if len(line) == 0 {
			fmt.Println()
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git"), strings.HasPrefix(line, "@@"):
			header.Println(line)
		case strings.HasPrefix(line, "+"):
			added.Println(line)
		case strings.HasPrefix(line, "-"):
			removed.Println(line)
		default:
			fmt.Println(line)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
