package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/Iron-Ham/adminkit/internal/apiclient"
	"github.com/Iron-Ham/adminkit/internal/app"
	"github.com/Iron-Ham/adminkit/internal/component"
	"github.com/Iron-Ham/adminkit/internal/config"
	"github.com/Iron-Ham/adminkit/internal/dom"
	"github.com/Iron-Ham/adminkit/internal/loader"
	"github.com/Iron-Ham/adminkit/internal/logging"
	"github.com/Iron-Ham/adminkit/internal/navigation"
	"github.com/Iron-Ham/adminkit/internal/styles"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
)

// Slots of the page layout components are mounted into.
const (
	navigationSlot = "#sidebar"
	breadcrumbSlot = "#breadcrumb"
	loaderSlot     = "#loaders"
	contentSlot    = "#content"
)

const pageLayout = `<!DOCTYPE html>
<html><head><title>adminkit</title></head><body>
<div class="layout">
<aside id="sidebar"></aside>
<main id="main">
<header id="breadcrumb"></header>
<section id="loaders"></section>
<article id="content"></article>
</main>
</div>
</body></html>`

// defaultWidth is used when stdout is not a terminal.
const defaultWidth = 80

var renderCmd = &cobra.Command{
	Use:   "render [path]",
	Short: "Render a dashboard page in the terminal",
	Long: `Render a dashboard page in the terminal.

The page layout is built from the configured navigation: the sidebar
marks the active path, the breadcrumb follows it, and with --endpoint
the content area shows the API response as a table.

Use --document to render your own HTML layout. It must contain elements
with the ids sidebar, breadcrumb, loaders and content.

Examples:
  adminkit render /users
  adminkit render /users --endpoint /users --title "All users"
  adminkit render /users --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	addRenderFlags(renderCmd.Flags())
	rootCmd.AddCommand(renderCmd)
}

func addRenderFlags(fs *pflag.FlagSet) {
	fs.String("title", "", "page title (default: the navigation item title)")
	fs.String("endpoint", "", "API endpoint whose data fills the content area")
	fs.String("document", "", "HTML layout file (default: the built-in layout)")
	fs.Int("width", 0, "output width (default: the terminal width)")
	fs.Bool("plain", false, "render without the surrounding box")
	fs.Bool("watch", false, "re-render whenever the config file changes")
}

// renderOptions are the parsed render flags.
type renderOptions struct {
	path     string
	title    string
	endpoint string
	document string
	width    int
	plain    bool
}

func parseRenderFlags(fs *pflag.FlagSet, args []string) renderOptions {
	o := renderOptions{path: "/"}
	if len(args) > 0 && args[0] != "" {
		o.path = args[0]
	}
	o.title, _ = fs.GetString("title")
	o.endpoint, _ = fs.GetString("endpoint")
	o.document, _ = fs.GetString("document")
	o.width, _ = fs.GetInt("width")
	o.plain, _ = fs.GetBool("plain")
	if o.width <= 0 {
		o.width = terminalWidth(os.Stdout)
	}
	if o.plain {
		o.width = 0
	}
	return o
}

func terminalWidth(f *os.File) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

func runRender(cmd *cobra.Command, args []string) error {
	opts := parseRenderFlags(cmd.Flags(), args)
	watch, _ := cmd.Flags().GetBool("watch")
	if watch && viper.ConfigFileUsed() == "" {
		return fmt.Errorf("--watch requires a config file; run 'adminkit config init' first")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	if err := renderPage(ctx, cfg, logger, opts, out); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	var mu sync.Mutex
	config.Watch(func(next *config.Config, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			logger.Warn("config reload failed", "error", err.Error())
			fmt.Fprintf(cmd.ErrOrStderr(), "config reload failed: %v\n", err)
			return
		}
		logger.Info("config reloaded", "file", viper.ConfigFileUsed())
		fmt.Fprintln(out)
		if err := renderPage(ctx, next, logger, opts, out); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "render failed: %v\n", err)
		}
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", viper.ConfigFileUsed())
	<-ctx.Done()
	return nil
}

// renderPage builds the page layout for o.path with a fresh application
// context and writes it to w.
func renderPage(ctx context.Context, cfg *config.Config, logger *logging.Logger, o renderOptions, w io.Writer, appOpts ...app.Option) error {
	doc, err := layoutDocument(o.document)
	if err != nil {
		return err
	}
	palette, err := styles.Resolve(cfg.Theme.Name, cfg.Theme.File)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger, append(appOpts, app.WithDocument(doc))...)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := a.Start(ctx); err != nil {
		return err
	}

	items := app.NavItems(cfg.Navigation.Items)
	if _, err := a.Mount(navigation.NavigationName, navigation.New(items), navigationSlot,
		component.Values{"active": o.path}); err != nil {
		return err
	}
	if _, err := a.Mount(navigation.BreadcrumbName, navigation.NewBreadcrumb(items), breadcrumbSlot,
		component.Values{"home": cfg.Navigation.Home}); err != nil {
		return err
	}
	if _, err := a.Mount(loader.ComponentName, loader.NewPageLoader(a.Loaders()), loaderSlot, nil); err != nil {
		return err
	}

	title := o.title
	if title == "" {
		if it, ok := navigation.Find(items, o.path); ok {
			title = it.Title
		}
	}
	a.Navigate(o.path, title)

	if o.endpoint != "" {
		props := component.Values{"title": title}
		resp, err := a.API().Get(ctx, o.endpoint, &apiclient.RequestOptions{
			Cache:         true,
			Loader:        contentSlot,
			LoaderMessage: "Loading " + o.endpoint,
		})
		if err != nil {
			a.ReportError("render", err)
			props["error"] = err.Error()
		} else {
			props["data"] = resp.Data
		}
		if _, err := a.Mount(dataViewName, dataView{}, contentSlot, props); err != nil {
			return err
		}
	}

	out := styles.New(palette).Render(doc.Body(), o.width)
	_, err = fmt.Fprintln(w, out)
	return err
}

func layoutDocument(path string) (*dom.Document, error) {
	markup := pageLayout
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout: %w", err)
		}
		markup = string(data)
	}
	return dom.Parse(markup)
}

// -----------------------------------------------------------------------------
// Data view
// -----------------------------------------------------------------------------

const dataViewName = "data-view"

// dataView renders JSON response data. Arrays of objects become a table
// with one column per key of the first row; objects become a field/value
// table. An "error" prop renders an alert instead.
type dataView struct {
	component.BaseHooks
}

func (dataView) Template(c *component.Component) (string, error) {
	var b strings.Builder
	props := c.Props()
	b.WriteString(`<section class="data-view">`)
	if title := props.String("title"); title != "" {
		fmt.Fprintf(&b, `<h3>%s</h3>`, html.EscapeString(title))
	}
	if msg := props.String("error"); msg != "" {
		fmt.Fprintf(&b, `<div class="alert">%s</div>`, html.EscapeString(msg))
		b.WriteString(`</section>`)
		return b.String(), nil
	}

	data, _ := props["data"].(json.RawMessage)
	result := gjson.ParseBytes(data)
	switch {
	case len(data) == 0:
		b.WriteString(`<p class="empty">No data</p>`)
	case result.IsArray():
		writeRows(&b, result.Array())
	case result.IsObject():
		b.WriteString(`<table><tr><th>Field</th><th>Value</th></tr>`)
		result.ForEach(func(key, value gjson.Result) bool {
			fmt.Fprintf(&b, `<tr><td>%s</td><td>%s</td></tr>`,
				html.EscapeString(key.String()), html.EscapeString(cell(value)))
			return true
		})
		b.WriteString(`</table>`)
	default:
		fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(result.String()))
	}
	b.WriteString(`</section>`)
	return b.String(), nil
}

func writeRows(b *strings.Builder, rows []gjson.Result) {
	if len(rows) == 0 {
		b.WriteString(`<p class="empty">No data</p>`)
		return
	}
	if !rows[0].IsObject() {
		b.WriteString(`<ul>`)
		for _, r := range rows {
			fmt.Fprintf(b, `<li>%s</li>`, html.EscapeString(cell(r)))
		}
		b.WriteString(`</ul>`)
		return
	}

	var columns []string
	rows[0].ForEach(func(key, _ gjson.Result) bool {
		columns = append(columns, key.String())
		return true
	})
	b.WriteString(`<table><tr>`)
	for _, col := range columns {
		fmt.Fprintf(b, `<th>%s</th>`, html.EscapeString(col))
	}
	b.WriteString(`</tr>`)
	for _, r := range rows {
		b.WriteString(`<tr>`)
		for _, col := range columns {
			fmt.Fprintf(b, `<td>%s</td>`, html.EscapeString(cell(r.Get(gjson.Escape(col)))))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</table>`)
}

// cell formats a value for a table cell. Nested values keep their JSON form.
func cell(v gjson.Result) string {
	if v.IsObject() || v.IsArray() {
		return v.Raw
	}
	return v.String()
}
