package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/passport-ui/passport/pkg/mcp"
	"github.com/passport-ui/passport/pkg/mcplog"
	"github.com/passport-ui/passport/pkg/registry"
	"github.com/passport-ui/passport/pkg/sitegen"
)

func (a *app) buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the static documentation site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, _, err := a.generator()
			if err != nil {
				return err
			}
			stats, err := gen.Build(cmd.Context(), a.cfg.Out)
			if err != nil {
				return err
			}
			okColor.Fprintf(a.out, "Built %d pages", stats.Pages)
			fmt.Fprintf(a.out, " (%d files) in %s -> %s\n",
				len(stats.Files), stats.Duration.Round(time.Millisecond), a.cfg.Out)
			return nil
		},
	}
	cmd.Flags().StringVar(&a.flags.Out, "out", "", `output directory (default "dist")`)
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var watchSite bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, dir, err := a.generator()
			if err != nil {
				return err
			}

			var calls *mcplog.Logger
			if a.cfg.LogFile != "" {
				calls, err = mcplog.NewLogger(a.cfg.LogFile)
				if err != nil {
					return err
				}
				defer calls.Close()
			}

			srv := mcpserver.NewServer(gen, calls)
			if watchSite {
				w, err := a.startWatcher(dir, srv.Swap)
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			a.logger.Info("serving MCP on stdio",
				"site", gen.Site().Profile.Name,
				"tools", len(srv.ToolNames()),
				"call_log", a.cfg.LogFile)
			return srv.ServeStdio()
		},
	}
	cmd.Flags().StringVar(&a.flags.LogFile, "log-file", "", "append a JSONL record of every tool call to this file")
	cmd.Flags().BoolVar(&watchSite, "watch", false, "reload the site when its files change")
	return cmd
}

func (a *app) previewCmd() *cobra.Command {
	var watchSite bool
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Serve the documentation site over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, dir, err := a.generator()
			if err != nil {
				return err
			}
			srv := sitegen.NewServer(gen, sitegen.WithLogger(a.logger))
			if watchSite {
				w, err := a.startWatcher(dir, srv.Swap)
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(a.out, "Previewing %s at %s\n",
				headingColor.Sprint(gen.Site().Profile.Name), okColor.Sprintf("http://%s/", a.cfg.Addr))
			return srv.ListenAndServe(ctx, a.cfg.Addr)
		},
	}
	cmd.Flags().StringVar(&a.flags.Addr, "addr", "", `listen address (default "127.0.0.1:8080")`)
	cmd.Flags().BoolVar(&watchSite, "watch", false, "reload the site when its files change")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var category string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <slug>",
		Short: "Show one component definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.loadSite()
			if err != nil {
				return err
			}
			slug := args[0]

			var def *registry.Definition
			var ok bool
			if category != "" {
				if !s.Query.IsKnownCategory(category) {
					return fmt.Errorf("unknown category %q (known: %s)", category, strings.Join(s.CategoryNames(), ", "))
				}
				def, ok = s.Query.ByCategoryAndSlug(category, slug)
			} else {
				def, ok = s.Query.BySlug(slug)
			}
			if !ok {
				return fmt.Errorf("component %q not found", slug)
			}

			if asJSON {
				return writeJSON(a.out, def)
			}
			printDefinition(a.out, s, def)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "restrict the lookup to one category (name or alias)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the definition as JSON")
	return cmd
}

func (a *app) navCmd() *cobra.Command {
	var search string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "nav",
		Short: "Print the sorted navigation tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.loadSite()
			if err != nil {
				return err
			}
			groups := s.Navigation(search)
			if asJSON {
				return writeJSON(a.out, groups)
			}
			printNavigation(a.out, s, groups)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive component name filter")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}

func (a *app) crumbsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "crumbs <path>",
		Short: "Derive the breadcrumb trail and title for a URL path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.loadSite()
			if err != nil {
				return err
			}
			path := args[0]
			title := s.Crumbs.Title(path)
			crumbs := s.Crumbs.For(path)
			if asJSON {
				return writeJSON(a.out, map[string]any{
					"path":        path,
					"title":       title,
					"breadcrumbs": crumbs,
				})
			}
			printCrumbs(a.out, path, title, crumbs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the trail as JSON")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the site and report definition problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.loadSite()
			if err != nil {
				printProblems(a.out, err)
				return errors.New("site is invalid")
			}

			defs := s.Query.Definitions()
			complete := registry.Complete(defs)
			okColor.Fprintf(a.out, "%s is valid", s.Profile.Name)
			fmt.Fprintf(a.out, ": %d categories, %d definitions, %d with pages\n",
				len(s.Query.Categories()), len(defs), len(complete))

			for _, d := range defs {
				if d.IsComplete() {
					continue
				}
				var missing []string
				if d.Slug == "" {
					missing = append(missing, "slug")
				}
				if d.StoryID == "" {
					missing = append(missing, "story_id")
				}
				warnColor.Fprintf(a.out, "  ~ %s/%s", d.Category, d.Name)
				fmt.Fprintf(a.out, " has no page (missing %s)\n", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		// version needs no site, config or logger.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "passport %s\n", version)
		},
	}
}

// printProblems prints each joined error on its own line.
func printProblems(w io.Writer, err error) {
	errorColor.Fprintln(w, "Site failed to load:")
	for _, line := range strings.Split(err.Error(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fmt.Fprintf(w, "  ! %s\n", line)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
