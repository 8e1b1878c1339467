package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	roster "github.com/smileynet/roster"
	"github.com/smileynet/roster/internal/browser"
	"github.com/smileynet/roster/internal/catalog"
	"github.com/smileynet/roster/internal/config"
	"github.com/smileynet/roster/internal/logging"
	"github.com/smileynet/roster/internal/remote"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Extra config file applied after the user and project files." type:"path" placeholder:"PATH"`
}

// CLI is the top-level command structure for roster.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version." short:"V"`
	Browse  BrowseCmd        `cmd:"" help:"Browse the catalog interactively."`
	List    ListCmd          `cmd:"" help:"Print one page of entities with resolved details."`
	Show    ShowCmd          `cmd:"" help:"Print one resolved entity."`
	Init    InitCmd          `cmd:"" help:"Write a starter .roster/config.yaml."`
}

// loadConfig loads layered config from user, project and explicit paths
// with env overrides, then validates it.
func loadConfig(extra string) (*config.Config, error) {
	paths := []string{
		os.ExpandEnv("$HOME/.config/roster/config.yaml"),
		".roster/config.yaml",
	}
	if extra != "" {
		if _, err := os.Stat(extra); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		paths = append(paths, extra)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newSession wires the remote client and catalog session from config.
func newSession(cfg *config.Config, logger *slog.Logger, opts ...remote.Option) *catalog.Session {
	clientOpts := append([]remote.Option{
		remote.WithBaseURL(cfg.API.BaseURL),
		remote.WithResource(cfg.API.Resource),
		remote.WithTimeout(cfg.API.Timeout),
		remote.WithUserAgent("roster/" + version),
		remote.WithLogger(logger),
	}, opts...)
	client := remote.NewClient(clientOpts...)

	return catalog.NewSession(client,
		catalog.WithRelatedField(cfg.API.RelatedField),
		catalog.WithPageCacheTTL(cfg.List.CacheTTL),
		catalog.WithEntityCacheLimits(cfg.Cache.MaxEntries, cfg.Cache.TTL),
		catalog.WithLogger(logger),
	)
}

// --- Browse command ---

// BrowseCmd opens the interactive catalog browser.
type BrowseCmd struct {
	MetricsAddr string `help:"Serve the session's Prometheus metrics on this address." placeholder:"HOST:PORT"`
}

// teaRunner abstracts Bubble Tea program execution for testing.
type teaRunner interface {
	Run() (tea.Model, error)
}

// Run builds real dependencies and launches the browser TUI.
func (b *BrowseCmd) Run(g *Globals) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("browse: requires a terminal (TTY)")
	}

	cfg, err := loadConfig(g.Config)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := logging.OpenFile(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	defer logFile.Close()
	logger, err := logging.New(logFile, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("browse: %w", err)
	}

	sess := newSession(cfg, logger)
	defer sess.Close()
	logger.Info("browse: session started", "session", sess.ID(), "base_url", cfg.API.BaseURL)

	if b.MetricsAddr != "" {
		srv, addr, err := serveMetrics(b.MetricsAddr, sess.Registry(), logger)
		if err != nil {
			return fmt.Errorf("browse: %w", err)
		}
		logger.Info("browse: serving metrics", "addr", addr.String())
		defer shutdownMetrics(srv, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := browser.NewModel(sess,
		browser.WithPageSize(cfg.List.PageSize),
		browser.WithRelatedField(cfg.API.RelatedField),
		browser.WithContext(ctx),
	)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	return b.run(true, prog)
}

// run executes the tea program, enabling testable wiring.
func (b *BrowseCmd) run(isTTY bool, prog teaRunner) error {
	if !isTTY {
		return errors.New("browse: requires a terminal (TTY)")
	}
	_, err := prog.Run()
	return err
}

// serveMetrics exposes reg over HTTP at /metrics. The listener is opened
// before returning so address errors surface immediately.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	return srv, ln.Addr(), nil
}

func shutdownMetrics(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", "err", err)
	}
}

// --- List command ---

// ListCmd prints one page of entities.
type ListCmd struct {
	Page   int    `help:"Page number." default:"1"`
	Limit  int    `help:"Entities per page (default from config)."`
	Search string `help:"Filter by name. Search results are a single page."`
}

// pageCatalog is the part of the session the list and show commands use.
type pageCatalog interface {
	GetPage(ctx context.Context, pageNumber, pageSize int, searchTerm string) (catalog.Page, error)
	Resolve(ctx context.Context, entityID string) (catalog.EntityDetail, error)
}

// Run executes the list command.
func (l *ListCmd) Run(g *Globals) error {
	cfg, logger, err := plainSetup(g)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	sess := newSession(cfg, logger)
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	limit := l.Limit
	if limit == 0 {
		limit = cfg.List.PageSize
	}
	return l.run(ctx, os.Stdout, sess, limit, cfg.API.RelatedField, logger)
}

// resolveConcurrency bounds parallel row resolutions in the list command.
const resolveConcurrency = 4

type rowResult struct {
	detail catalog.EntityDetail
	err    error
}

func (l *ListCmd) run(ctx context.Context, w io.Writer, cat pageCatalog, limit int, relatedField string, logger *slog.Logger) error {
	page, err := cat.GetPage(ctx, l.Page, limit, l.Search)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(page.Items) == 0 {
		if page.Search != "" {
			_, _ = fmt.Fprintf(w, "No results for %q\n", page.Search)
		} else {
			_, _ = fmt.Fprintf(w, "Page %d is empty\n", page.Number)
		}
		return nil
	}

	results := make([]rowResult, len(page.Items))
	var eg errgroup.Group
	eg.SetLimit(resolveConcurrency)
	for i, it := range page.Items {
		eg.Go(func() error {
			d, err := cat.Resolve(ctx, it.ID)
			results[i] = rowResult{detail: d, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "GENDER", strings.ToUpper(labelFor(relatedField)))
	for i, it := range page.Items {
		r := results[i]
		gender, related := r.detail.Value("gender"), r.detail.Related()
		if r.err != nil {
			logger.Warn("list: resolve failed", "id", it.ID, "err", r.err)
			gender, related = "error", "error"
		}
		tbl.Row(it.ID, it.Name, gender, related)
	}
	_, _ = fmt.Fprintln(w, tbl.Render())
	_, _ = fmt.Fprintln(w, pageSummary(page))
	return nil
}

// pageSummary renders the pagination line under a list.
func pageSummary(p catalog.Page) string {
	if p.Search != "" {
		return fmt.Sprintf("%d result(s) for %q", len(p.Items), p.Search)
	}
	total := "?"
	if p.TotalPages > 0 {
		total = fmt.Sprint(p.TotalPages)
	}
	s := fmt.Sprintf("Page %d of %s", p.Number, total)
	if p.TotalRecords > 0 {
		s += fmt.Sprintf(" (%d records)", p.TotalRecords)
	}
	var nav []string
	if p.HasPrevious {
		nav = append(nav, fmt.Sprintf("--page %d for previous", p.Number-1))
	}
	if p.HasNext {
		nav = append(nav, fmt.Sprintf("--page %d for next", p.Number+1))
	}
	if len(nav) > 0 {
		s += "; " + strings.Join(nav, ", ")
	}
	return s
}

// --- Show command ---

// ShowCmd prints one resolved entity.
type ShowCmd struct {
	ID string `arg:"" help:"Entity ID."`
}

// Run executes the show command.
func (s *ShowCmd) Run(g *Globals) error {
	cfg, logger, err := plainSetup(g)
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}
	sess := newSession(cfg, logger)
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return s.run(ctx, os.Stdout, sess, cfg.API.RelatedField)
}

// shownFirst are printed before the remaining attributes, in order.
var shownFirst = []string{"height", "gender"}

// hiddenFields are never printed.
var hiddenFields = []string{"name", "url", "created", "edited"}

func (s *ShowCmd) run(ctx context.Context, w io.Writer, cat pageCatalog, relatedField string) error {
	d, err := cat.Resolve(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("show: %w", err)
	}

	_, _ = fmt.Fprintf(w, "%s (%s)\n", d.Name(), d.ID)
	for _, f := range shownFirst {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", f+":", d.Value(f))
	}
	if relatedField != "" {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", labelFor(relatedField)+":", d.Related())
	}

	var rest []string
	for k := range d.Fields {
		if k == relatedField || slices.Contains(shownFirst, k) || slices.Contains(hiddenFields, k) {
			continue
		}
		rest = append(rest, k)
	}
	slices.Sort(rest)
	for _, k := range rest {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", k+":", d.Value(k))
	}
	return nil
}

func labelFor(relatedField string) string {
	if relatedField == "" {
		return "related"
	}
	return relatedField
}

// plainSetup loads config and builds a stderr logger for non-interactive commands.
func plainSetup(g *Globals) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// --- Init command ---

// InitCmd writes the starter project config.
type InitCmd struct {
	Force bool `help:"Overwrite an existing config file."`
}

// Run executes the init command. A config.yaml in
// $HOME/.config/roster/templates replaces the built-in starter.
func (i *InitCmd) Run() error {
	templates := roster.OverlayFS(os.ExpandEnv("$HOME/.config/roster/templates"), roster.Templates)
	return i.run(os.Stdout, ".roster", templates)
}

func (i *InitCmd) run(w io.Writer, dir string, templates fs.FS) error {
	data, err := fs.ReadFile(templates, roster.ConfigTemplate)
	if err != nil {
		return fmt.Errorf("init: reading template: %w", err)
	}
	target := filepath.Join(dir, "config.yaml")
	if !i.Force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("init: %s already exists (use --force to overwrite)", target)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Wrote %s\n", target)
	return nil
}

// Exit codes.
const (
	exitSuccess = 0
	exitFetch   = 1
	exitSetup   = 2
)

// exitCode maps an error to the appropriate exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var fe *remote.FetchError
	if errors.As(err, &fe) {
		return exitFetch
	}
	return exitSetup
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("roster"),
		kong.Description("Browse a paginated REST catalog from the terminal."),
		kong.Vars{"version": version + " " + commit + " " + date},
	)
	err := ctx.Run(&cli.Globals)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}
