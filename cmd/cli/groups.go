package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yatube/backend/internal/models"
	"github.com/yatube/backend/internal/repository"
)

var (
	groupTitle       string
	groupSlug        string
	groupDescription string
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage groups",
	Long:  "Groups are created by administrators; posts may optionally belong to one",
}

var groupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group",
	RunE: func(cmd *cobra.Command, args []string) error {
		return createGroup(cmd.Context(), repository.NewGroupRepository(db), cmd.OutOrStdout(),
			groupTitle, groupSlug, groupDescription)
	},
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listGroups(cmd.Context(), repository.NewGroupRepository(db), cmd.OutOrStdout())
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a group; its posts stay, without a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteGroup(cmd.Context(), repository.NewGroupRepository(db), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	groupCreateCmd.Flags().StringVar(&groupTitle, "title", "", "Group title (required)")
	groupCreateCmd.Flags().StringVar(&groupSlug, "slug", "", "URL slug (required)")
	groupCreateCmd.Flags().StringVar(&groupDescription, "description", "", "Group description")
	_ = groupCreateCmd.MarkFlagRequired("title")
	_ = groupCreateCmd.MarkFlagRequired("slug")

	groupCmd.AddCommand(groupCreateCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupDeleteCmd)
}

func createGroup(ctx context.Context, groups repository.GroupRepository, w io.Writer, title, slug, description string) error {
	slug = strings.TrimSpace(slug)
	if !validSlug(slug) {
		return fmt.Errorf("invalid slug %q: use letters, digits, hyphens and underscores", slug)
	}

	group := &models.Group{
		Title:       strings.TrimSpace(title),
		Slug:        slug,
		Description: description,
	}
	if err := groups.CreateGroup(ctx, group); err != nil {
		if errors.Is(err, repository.ErrDuplicateGroup) {
			return fmt.Errorf("group %q already exists", slug)
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
	return printResult(w, group, fmt.Sprintf("✓ Created group %s (/group/%s/)", group.Title, group.Slug))
}

func listGroups(ctx context.Context, groups repository.GroupRepository, w io.Writer) error {
	list, err := groups.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	if output == "json" {
		return printResult(w, list, "")
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "No groups")
		return nil
	}
	for _, g := range list {
		fmt.Fprintf(w, "%-20s %s\n", g.Slug, g.Title)
	}
	return nil
}

func deleteGroup(ctx context.Context, groups repository.GroupRepository, w io.Writer, slug string) error {
	if err := groups.DeleteGroup(ctx, slug); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return fmt.Errorf("group %q not found", slug)
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return printResult(w, map[string]string{"deleted": slug}, fmt.Sprintf("✓ Deleted group %s", slug))
}

// validSlug accepts the characters allowed in a /group/<slug>/ path segment
func validSlug(slug string) bool {
	if slug == "" || len(slug) > 50 {
		return false
	}
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
