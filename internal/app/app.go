package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"richtext/internal/editor"
	"richtext/internal/platform"
	"richtext/internal/platform/headless"
	"richtext/internal/ui"
	"richtext/pkg/richtext"
)

const formatRender = "render"

type App struct {
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	clipboard editor.Clipboard
	level     *slog.LevelVar
	log       *slog.Logger
	cfg       Config
}

// options are the per-invocation flags shared by the subcommands.
type options struct {
	config   string
	verbose  bool
	from     string
	to       string
	out      string
	save     string
	paste    bool
	copy     bool
	password string
	compress bool
	encrypt  bool
	width    int
	height   int
	color    string
	border   bool
	status   bool
	script   string
}

func New() *App {
	a := &App{
		in:        os.Stdin,
		out:       os.Stdout,
		errOut:    os.Stderr,
		clipboard: editor.SystemClipboard{},
		level:     new(slog.LevelVar),
		cfg:       DefaultConfig(),
	}
	a.setLogger()
	return a
}

func (a *App) WithIO(in io.Reader, out, errOut io.Writer) *App {
	a.in, a.out, a.errOut = in, out, errOut
	a.setLogger()
	return a
}

func (a *App) WithClipboard(c editor.Clipboard) *App {
	a.clipboard = c
	return a
}

func (a *App) setLogger() {
	a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: a.level}))
}

func (a *App) Run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	root := a.command()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(ctx)
}

func (a *App) command() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "rtconv",
		Short:         "Convert, edit and render rich-text documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(o.config)
			if err != nil {
				return err
			}
			a.cfg = cfg
			level := slog.LevelInfo
			if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
				return fmt.Errorf("app: log level %q: %w", cfg.LogLevel, err)
			}
			if o.verbose {
				level = slog.LevelDebug
			}
			a.level.Set(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&o.config, "config", "", "TOML or YAML config file")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.convertCommand(o), a.editCommand(o), a.inspectCommand(o), a.watchCommand(o))
	return root
}

func inputFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVar(&o.from, "from", "auto", "input format: auto, json, tree, markdown, text")
	f.BoolVar(&o.paste, "paste", false, "read input from the clipboard")
	f.StringVar(&o.password, "password", "", "password for sealed documents")
}

func outputFlags(cmd *cobra.Command, o *options) {
	f := cmd.Flags()
	f.StringVar(&o.to, "to", "json", "output format: json, tree, markdown, text, render")
	f.StringVarP(&o.out, "out", "o", "", "write output to a file instead of stdout")
	f.StringVar(&o.save, "save", "", "also save the document envelope to this path")
	f.BoolVar(&o.copy, "copy", false, "copy output to the clipboard")
	f.BoolVar(&o.compress, "compress", false, "compress the saved envelope")
	f.BoolVar(&o.encrypt, "encrypt", false, "encrypt the saved envelope with --password")
	f.IntVar(&o.width, "width", 0, "render width in columns")
	f.IntVar(&o.height, "height", 0, "render height in rows")
	f.StringVar(&o.color, "color", "", "render colors: auto, always, 256, ansi, never")
	f.BoolVar(&o.border, "border", false, "draw a border when rendering")
	f.BoolVar(&o.status, "status", false, "draw a status line when rendering")
}

func (a *App) convertCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between formats",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load(firstArg(args), o)
			if err != nil {
				return err
			}
			return a.emit(c, nil, o)
		},
	}
	inputFlags(cmd, o)
	outputFlags(cmd, o)
	return cmd
}

func (a *App) editCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [file]",
		Short: "Apply an edit script to a document",
		Long:  "Apply an edit script to a document. Without a file the script starts from an empty document.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c *richtext.Content
			if len(args) == 1 || o.paste {
				var err error
				if c, err = a.load(firstArg(args), o); err != nil {
					return err
				}
			} else {
				props, err := a.cfg.Props()
				if err != nil {
					return err
				}
				c = richtext.New(props)
			}
			script, err := a.openScript(o.script)
			if err != nil {
				return err
			}
			defer script.Close()

			var surface *headless.Backend
			opts := editor.Options{Lookup: a.cfg.Lookup(), Clipboard: a.clipboard, Logger: a.log}
			if o.to == formatRender {
				surface = a.surface(o)
				opts.Surface = surface
			}
			e := editor.New(c, opts)
			defer e.Close()
			e.Render()
			if err := runScript(e, script); err != nil {
				return err
			}
			return a.emit(e.Content(), surface, o)
		},
	}
	inputFlags(cmd, o)
	outputFlags(cmd, o)
	cmd.Flags().StringVar(&o.script, "script", "-", "edit script path, - for stdin")
	return cmd
}

func (a *App) inspectCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Describe a saved document envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, err := richtext.InspectEnvelope(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "sealed: %t\ncompressed: %t\nencrypted: %t\n", info.Wrapped, info.Compressed, info.Encrypted)
			if info.Wrapped {
				fmt.Fprintf(a.out, "envelope version: %d\n", info.EnvelopeVer)
			}
			if info.Encrypted && o.password == "" {
				return nil
			}
			props, err := a.cfg.Props()
			if err != nil {
				return err
			}
			c, err := richtext.Load(path, richtext.LoadOptions{Password: o.password, Defaults: props})
			if err != nil {
				return err
			}
			runs, mentions, choices := 0, 0, 0
			for i := range c.Lines {
				for _, r := range c.Lines[i].Runs {
					runs++
					switch r.Kind {
					case richtext.KindMention:
						mentions++
					case richtext.KindChoice:
						choices++
					}
				}
			}
			fmt.Fprintf(a.out, "lines: %d\nruns: %d\nmentions: %d\nchoices: %d\nstyles: %d\n", len(c.Lines), runs, mentions, choices, len(c.Props.Styles))
			return nil
		},
	}
	cmd.Flags().StringVar(&o.password, "password", "", "password for sealed documents")
	return cmd
}

func (a *App) watchCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Convert a document again every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			refresh := func() error {
				c, err := a.load(path, o)
				if err != nil {
					return err
				}
				return a.emit(c, nil, o)
			}
			if err := refresh(); err != nil {
				a.log.Warn("initial convert failed", "path", path, "err", err)
			}
			return watchFile(cmd.Context(), path, a.log, refresh)
		},
	}
	inputFlags(cmd, o)
	outputFlags(cmd, o)
	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (a *App) openScript(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(a.in), nil
	}
	return os.Open(path)
}

// load reads a document from the clipboard, stdin or a file. Saved envelopes
// are recognised by their header; anything else is imported as text.
func (a *App) load(path string, o *options) (*richtext.Content, error) {
	props, err := a.cfg.Props()
	if err != nil {
		return nil, err
	}
	var data []byte
	switch {
	case o.paste:
		s, err := a.clipboard.ReadAll()
		if err != nil {
			return nil, err
		}
		data = []byte(s)
	case path == "" || path == "-":
		if data, err = io.ReadAll(a.in); err != nil {
			return nil, err
		}
	default:
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}

	if richtext.IsDocument(data) {
		a.log.Debug("decoding envelope", "path", path, "bytes", len(data))
		return richtext.Decode(data, richtext.LoadOptions{Password: o.password, Defaults: props})
	}
	from, err := richtext.ParseFormat(o.from)
	if err != nil {
		return nil, err
	}
	if from != richtext.FormatAuto {
		return richtext.ImportAs(string(data), from, props)
	}
	c, format, err := richtext.Import(data, props)
	if err != nil {
		return nil, err
	}
	a.log.Debug("imported", "path", path, "format", format, "lines", len(c.Lines))
	return c, nil
}

// emit saves, copies and writes c as the flags ask. Stdout is used only when
// no other destination was given. surface, when set, already holds the
// rendered frame.
func (a *App) emit(c *richtext.Content, surface *headless.Backend, o *options) error {
	if o.save != "" {
		opts := richtext.SaveOptions{
			Compression: o.compress,
			Encryption:  richtext.EncryptionOptions{Enabled: o.encrypt, Password: o.password},
		}
		if err := richtext.Save(o.save, c, opts); err != nil {
			return err
		}
		a.log.Info("saved", "path", o.save, "compressed", o.compress, "encrypted", o.encrypt)
	}

	var dst io.Writer
	switch {
	case o.out != "":
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		defer f.Close()
		dst = f
	case !o.copy && o.save == "":
		dst = a.out
	}
	if dst == nil && !o.copy {
		return nil
	}

	var text string
	if o.to == formatRender {
		target := dst
		if target == nil {
			target = io.Discard
		}
		s, err := a.renderText(c, surface, o, target)
		if err != nil {
			return err
		}
		text = s
	} else {
		f, err := richtext.ParseFormat(o.to)
		if err != nil {
			return err
		}
		if text, err = richtext.Export(c, f); err != nil {
			return err
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
	}

	if o.copy {
		if err := a.clipboard.WriteAll(strings.TrimSuffix(text, "\n")); err != nil {
			return err
		}
	}
	if dst == nil {
		return nil
	}
	_, err := io.WriteString(dst, text)
	return err
}

func (a *App) surface(o *options) *headless.Backend {
	w, h := o.width, o.height
	if w <= 0 {
		w = a.cfg.Render.Width
	}
	if h <= 0 {
		h = a.cfg.Render.Height
	}
	theme := ui.DefaultTheme()
	if o.border || a.cfg.Render.Border {
		theme = ui.BoxedTheme()
	}
	return headless.New(w, h).WithTheme(theme).WithStatus(o.status || a.cfg.Render.Status)
}

func (a *App) renderText(c *richtext.Content, surface *headless.Backend, o *options, dst io.Writer) (string, error) {
	if surface == nil {
		surface = a.surface(o)
		if err := surface.Render(platform.FrameOf(c)); err != nil {
			return "", err
		}
	}
	mode := o.color
	if mode == "" {
		mode = a.cfg.Render.Color
	}
	profile, err := colorProfile(mode, dst)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := paint(&buf, surface.Cells(), c.Props.Styles, profile); err != nil {
		return "", err
	}
	return buf.String(), nil
}
