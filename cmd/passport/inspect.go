package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/passport-ui/passport/pkg/breadcrumb"
	"github.com/passport-ui/passport/pkg/navigation"
	"github.com/passport-ui/passport/pkg/registry"
	"github.com/passport-ui/passport/pkg/site"
)

const maxWidth = 80

var (
	headingColor = color.New(color.Bold)
	dimColor     = color.New(color.Faint)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// printDefinition prints a human-readable component summary.
func printDefinition(w io.Writer, s *site.Site, def *registry.Definition) {
	header := headingColor.Sprint(def.Name)
	label := s.Query.CategoryLabel(def.Category)
	fmt.Fprintf(w, "%s  [%s]\n", header, label)
	if !def.IsComplete() {
		warnColor.Fprintln(w, "  Incomplete: no page is generated until both slug and story_id are set")
	}

	if def.Description != "" {
		fmt.Fprintln(w)
		printWrapped(w, def.Description, 0, maxWidth)
	}

	fmt.Fprintln(w)
	rows := [][2]string{
		{"Slug", orNone(def.Slug)},
		{"Story", orNone(def.StoryID)},
		{"Icon", orNone(def.Icon)},
	}
	if def.IsComplete() {
		href := "/" + def.Category + "/" + def.Slug
		rows = append(rows, [2]string{"Page", href})
		if url := s.Profile.URL(href); url != href {
			rows = append(rows, [2]string{"URL", url})
		}
	}
	printRows(w, rows)

	printCode(w, "Import", def.ImportCode)
	printCode(w, "Usage", def.UsageCode)

	if def.IsComplete() {
		fmt.Fprintln(w)
		headingColor.Fprintln(w, "Breadcrumbs")
		fmt.Fprintf(w, "  %s\n", formatTrail(s.Crumbs.For("/"+def.Category+"/"+def.Slug)))
	}
}

// printNavigation prints the sorted navigation tree, one category per block.
func printNavigation(w io.Writer, s *site.Site, groups navigation.Groups) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No components match.")
		return
	}
	nameW := 0
	for _, g := range groups {
		for _, d := range g.Definitions {
			if len(d.Name) > nameW {
				nameW = len(d.Name)
			}
		}
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if len(g.Definitions) == 0 {
			fmt.Fprintf(w, "%s  %s\n", headingColor.Sprint(s.Query.CategoryLabel(g.Category)), dimColor.Sprint("(none)"))
			continue
		}
		headingColor.Fprintln(w, s.Query.CategoryLabel(g.Category))
		for _, d := range g.Definitions {
			padding := strings.Repeat(" ", nameW-len(d.Name))
			fmt.Fprintf(w, "  %s%s  %s\n", d.Name, padding, dimColor.Sprintf("/%s/%s", d.Category, d.Slug))
		}
	}
}

// printCrumbs prints the title and trail derived for path.
func printCrumbs(w io.Writer, path, title string, crumbs []breadcrumb.Crumb) {
	fmt.Fprintf(w, "%s  %s\n", headingColor.Sprint(title), dimColor.Sprint(path))
	fmt.Fprintf(w, "  %s\n", formatTrail(crumbs))
	hrefW := 0
	for _, c := range crumbs {
		if len(c.Href) > hrefW {
			hrefW = len(c.Href)
		}
	}
	for _, c := range crumbs {
		fmt.Fprintf(w, "  %-*s  %s\n", hrefW, c.Href, c.Label)
	}
}

func formatTrail(crumbs []breadcrumb.Crumb) string {
	labels := make([]string, len(crumbs))
	for i, c := range crumbs {
		labels[i] = c.Label
	}
	return strings.Join(labels, " › ")
}

// printRows prints label/value pairs with aligned values.
func printRows(w io.Writer, rows [][2]string) {
	labelW := 0
	for _, r := range rows {
		if len(r[0]) > labelW {
			labelW = len(r[0])
		}
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-*s  %s\n", labelW, r[0], r[1])
	}
}

func printCode(w io.Writer, title, code string) {
	fmt.Fprintln(w)
	if strings.TrimSpace(code) == "" {
		fmt.Fprintf(w, "%s  %s\n", headingColor.Sprint(title), dimColor.Sprint("(none)"))
		return
	}
	headingColor.Fprintln(w, title)
	fmt.Fprintln(w, "  "+strings.Repeat("─", 40))
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func orNone(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// printWrapped prints text word-wrapped to width with the given indent.
func printWrapped(w io.Writer, text string, indent, width int) {
	prefix := strings.Repeat(" ", indent)
	words := strings.Fields(text)
	if len(words) == 0 {
		return
	}
	line := prefix + words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			fmt.Fprintln(w, line)
			line = prefix + word
		} else {
			line += " " + word
		}
	}
	fmt.Fprintln(w, line)
}
