package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vizsite/internal/errors"
	"github.com/vango-dev/vizsite/internal/templates"
)

func createCmd() *cobra.Command {
	var (
		template    string
		description string
		base        string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new vizsite project",
		Long: `Create a new project in a new directory.

Templates:
  minimal   One page charting one dataset
  site      Layout, stylesheet and several chart kinds (default)

The production base path defaults to "/<name>", the path a project site
is served under on GitHub Pages.

Examples:
  vizsite create CSCI5609GP
  vizsite create climate --template=minimal --base=""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !cmd.Flags().Changed("base") {
				base = "/" + name
			}
			return runCreate(name, template, description, base)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "site", "Project template (minimal, site)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().StringVar(&base, "base", "", `Production base path (default "/<name>")`)
	return cmd
}

func runCreate(name, templateName, description, base string) error {
	if !isValidProjectName(name) {
		return errors.New(errors.CodeInvalidName).
			WithDetail(fmt.Sprintf("%q is not a valid project name.", name))
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return errors.New(errors.CodeProjectExists).
			WithDetail(fmt.Sprintf("Directory %q already exists.", name)).
			WithSuggestion("Choose a different name or remove the existing directory")
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}
	if description == "" {
		description = "A data-visualization site."
	}

	if err := tmpl.Create(projectDir, templates.Config{
		ProjectName: name,
		Description: description,
		Base:        base,
	}); err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	success("Created %s from the %s template", name, templateName)
	fmt.Println()
	info("cd %s", name)
	info("vizsite dev")
	return nil
}

func isValidProjectName(name string) bool {
	if name == "" || strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
