package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/passport-ui/passport/catalogs"
	"github.com/passport-ui/passport/pkg/site"
	"github.com/passport-ui/passport/pkg/sitegen"
	"github.com/passport-ui/passport/pkg/util"
	"github.com/passport-ui/passport/pkg/watch"
)

// app carries the resolved configuration and I/O shared by every command.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	getenv func(string) string

	flags      Config
	configPath string
	noColor    bool

	cfg    Config
	logger *slog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newApp(in, out, errOut, os.Getenv).command()
}

func newApp(in io.Reader, out, errOut io.Writer, getenv func(string) string) *app {
	return &app{in: in, out: out, errOut: errOut, getenv: getenv}
}

func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:               "passport",
		Short:             "Registry, navigation and static pages for the Passport UI docs",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.prepare,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.Site, "site", "", `site directory, or the name of a bundled site (default "docs")`)
	pf.StringVar(&a.configPath, "config", defaultConfigPath, "project config file")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", `log level: debug, info, warn or error (default "info")`)
	pf.StringVar(&a.flags.LogFormat, "log-format", "", `log format: text or json (default "text")`)
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.buildCmd(),
		a.serveCmd(),
		a.previewCmd(),
		a.inspectCmd(),
		a.navCmd(),
		a.crumbsCmd(),
		a.validateCmd(),
		a.setupCmd(),
		versionCmd(),
	)

	return root
}

// prepare resolves configuration and the logger before any subcommand runs.
func (a *app) prepare(cmd *cobra.Command, args []string) error {
	if err := loadDotEnv(defaultEnvFile); err != nil {
		return err
	}
	cfg, err := resolveConfig(a.flags, a.configPath, a.getenv)
	if err != nil {
		return err
	}
	level, err := util.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	format, err := util.ParseFormat(cfg.LogFormat)
	if err != nil {
		return err
	}
	if a.noColor {
		color.NoColor = true
	}

	a.cfg = cfg
	a.logger = util.NewLogger(util.LoggerConfig{Level: level, Format: format, Output: a.errOut})
	return nil
}

// resolveSite maps a --site value to a filesystem. A directory holding a
// site.yaml wins over a bundled site of the same name; dir is empty for
// bundled sites.
func resolveSite(name string) (dir string, fsys fs.FS, err error) {
	if info, statErr := os.Stat(filepath.Join(name, site.ProfileFile)); statErr == nil && !info.IsDir() {
		return name, os.DirFS(name), nil
	}
	fsys, err = catalogs.Site(name)
	if err != nil {
		return "", nil, fmt.Errorf("site %q is neither a directory with %s nor a bundled site: %w", name, site.ProfileFile, err)
	}
	return "", fsys, nil
}

func (a *app) loadSite() (*site.Site, string, error) {
	dir, fsys, err := resolveSite(a.cfg.Site)
	if err != nil {
		return nil, "", err
	}
	s, err := site.Load(fsys, site.LoadOptions{})
	if err != nil {
		return nil, "", err
	}
	a.logger.Debug("site loaded",
		"site", s.Profile.Name,
		"definitions", len(s.Query.Definitions()),
		"categories", len(s.Query.Categories()))
	return s, dir, nil
}

func (a *app) generator() (*sitegen.Generator, string, error) {
	s, dir, err := a.loadSite()
	if err != nil {
		return nil, "", err
	}
	gen, err := sitegen.New(s, a.logger)
	if err != nil {
		return nil, "", err
	}
	return gen, dir, nil
}

// startWatcher reloads the site under dir on change and hands each new
// generator to swap. Failed reloads keep the current generator.
func (a *app) startWatcher(dir string, swap func(*sitegen.Generator)) (*watch.Watcher, error) {
	if dir == "" {
		return nil, errors.New("--watch needs a site directory on disk, not a bundled site")
	}
	load := func() (*site.Site, error) {
		return site.LoadDir(dir, site.LoadOptions{})
	}
	onReload := func(s *site.Site) {
		gen, err := sitegen.New(s, a.logger)
		if err != nil {
			a.logger.Error("failed to prepare reloaded site", "error", err)
			return
		}
		swap(gen)
	}
	w, err := watch.New(dir, load, onReload, watch.Options{}, a.logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
