package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/platkit-labs/platkit/internal/config"
	"github.com/platkit-labs/platkit/internal/munge"
	"github.com/platkit-labs/platkit/internal/platform"
	"github.com/platkit-labs/platkit/internal/project"
	"github.com/spf13/cobra"
)

// Shared by every command that works on an existing platform project.
var (
	projectRoot     string
	projectPlatform string
)

func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&projectRoot, "project", "C", ".", "Platform project root")
	cmd.Flags().StringVarP(&projectPlatform, "platform", "p", "", "Platform name (default: from project state, then config)")
}

// resolvePlatform picks the platform for root: an explicit flag wins, then
// the platform recorded in the project state, then default_platform.
func resolvePlatform(root, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	st, err := munge.LoadState(root)
	if err != nil {
		return "", err
	}
	if st.Platform != "" {
		return st.Platform, nil
	}
	if p := config.DefaultPlatform(); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("cannot tell the platform of %s; pass --platform (one of %s)", root, strings.Join(platform.Names(), ", "))
}

// newProject returns an unopened project wired to the command's streams.
func newProject(cmd *cobra.Command, name string) (*project.Project, error) {
	h, err := platform.Lookup(name, logger)
	if err != nil {
		return nil, err
	}
	return project.New(h,
		project.WithLogger(logger),
		project.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	), nil
}

// openProject opens the project named by --project and --platform.
func openProject(ctx context.Context, cmd *cobra.Command) (*project.Project, error) {
	name, err := resolvePlatform(projectRoot, projectPlatform)
	if err != nil {
		return nil, err
	}
	p, err := newProject(cmd, name)
	if err != nil {
		return nil, err
	}
	if err := p.Open(ctx, projectRoot); err != nil {
		return nil, err
	}
	return p, nil
}
