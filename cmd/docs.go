package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// command page without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// docsCmd writes a Markdown page per command
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown documentation for every command",
	Args:   cobra.MaximumNArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "docs"
		if len(args) > 0 {
			dir = args[0]
		}
		return makeDocs(dir)
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
}

// navOrder is each page's position in the site navigation
var navOrder = map[string]int{
	"cox1":         0,
	"cox1_run":     0,
	"cox1_fetch":   1,
	"cox1_combine": 2,
	"cox1_align":   3,
	"cox1_inspect": 4,
	"cox1_blast":   5,
	"cox1_report":  6,
}

// makeDocs parses the commands and outputs Markdown documentation files
func makeDocs(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return doc.GenMarkdownTreeCustom(rootCmd, dir, filePrepender, linkHandler)
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	base := pageName(filename)
	if base == rootCmd.Name() {
		return fmt.Sprintf(rootPage, base, navOrder[base])
	}

	title := strings.TrimPrefix(base, rootCmd.Name()+"_")
	return fmt.Sprintf(childPage, title, rootCmd.Name(), navOrder[base])
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := pageName(filename)
	if base == rootCmd.Name() {
		return "/"
	}
	return base
}

func pageName(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}
