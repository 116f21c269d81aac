package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	stdnet "net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"github.com/urfave/cli/v2"

	"InkBoard/internal/board"
	"InkBoard/internal/config"
	"InkBoard/internal/export"
	"InkBoard/internal/logging"
	"InkBoard/internal/metrics"
	"InkBoard/internal/net"
	"InkBoard/internal/raster"
	"InkBoard/internal/session"
	"InkBoard/internal/state"
	"InkBoard/internal/ui"
)

func main() {
	app := &cli.App{
		Name:  "inkboard",
		Usage: "freehand drawing board",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file", EnvVars: []string{"INKBOARD_CONFIG"}},
			&cli.StringFlag{Name: "log-level", Usage: "override log.level from the config"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "accept pointer events over websocket and broadcast strokes",
				Action: runServe,
			},
			{
				Name:  "desktop",
				Usage: "open the board in a desktop window",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "join", Usage: "draw on a served board instead, e.g. ws://host:8888/ws"},
				},
				Action: runDesktop,
			},
			{
				Name:  "render",
				Usage: "replay a recorded event script and export the result",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: "events", Required: true, Usage: "JSON event script"},
					&cli.PathFlag{Name: "out", Required: true, Usage: "output file (.png, .bmp or .pdf)"},
				},
				Action: runRender,
			},
			{
				Name:  "browse",
				Usage: "list boards announced on the local network",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "timeout", Value: 2 * time.Second},
				},
				Action: runBrowse,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "inkboard:", err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, nil, err
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	logger, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func runServe(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	m := metrics.New()
	b, err := board.New(cfg, logger, m)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := net.NewHub(b.Session, logger)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/snapshot.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		if err := export.WritePNG(w, b.Pixmap.Snapshot()); err != nil {
			logger.Warn("[serve] snapshot failed", "err", err)
		}
	})

	ln, err := stdnet.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	port := ln.Addr().(*stdnet.TCPAddr).Port
	logger.Info("[serve] listening", "addr", ln.Addr().String(),
		"share", "ws://"+stdnet.JoinHostPort(net.OutgoingIP(logger), strconv.Itoa(port))+"/ws")

	if cfg.Server.MDNS {
		mdnsServer, err := net.Advertise(port)
		if err != nil {
			logger.Warn("[serve] mDNS disabled", "err", err)
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("[serve] stopped", "strokes", b.Store.Len())
	return nil
}

func runDesktop(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	b, err := board.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	url := c.String("join")
	if url == "" {
		ui.RunApp(b.Session, b.Pixmap, b.Selector)
		return nil
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	remote, err := net.Dial(ctx, url, b.Store, logger)
	if err != nil {
		return err
	}
	interp, err := cfg.Interpolator()
	if err != nil {
		return err
	}
	// local strokes are previewed on a scratch store until the host's ops
	// replace them
	scratch := state.NewStore(logger)
	remote.Tools = b.Selector
	remote.Preview = session.New(raster.NewCompositor(b.Pixmap, nil), scratch, b.Selector, session.Options{
		Interpolator: interp,
		Background:   cfg.Background(),
		Logger:       logger,
	})

	w := ui.NewWindow(remote, b.Pixmap, b.Store, b.Selector)
	w.Board.OnClear = remote.Clear
	remote.OnChange = func() {
		fyne.Do(func() {
			scratch.Clear()
			b.Session.Redraw()
			w.Board.Refresh()
		})
	}
	go func() {
		if err := remote.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("[desktop] disconnected from host", "err", err)
			fyne.Do(func() { w.Board.SetStatus("Disconnected: " + err.Error()) })
		}
	}()
	w.Window.ShowAndRun()
	return nil
}

func runRender(c *cli.Context) error {
	cfg, logger, err := setup(c)
	if err != nil {
		return err
	}
	b, err := board.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	f, err := os.Open(c.Path("events"))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := b.Replay(f); err != nil {
		return err
	}
	if err := export.WriteFile(c.Path("out"), b.Pixmap.Snapshot()); err != nil {
		return err
	}
	logger.Info("[render] done", "strokes", b.Store.Len(), "out", c.Path("out"))
	return nil
}

func runBrowse(c *cli.Context) error {
	_, logger, err := setup(c)
	if err != nil {
		return err
	}
	return net.Browse(c.Context, c.Duration("timeout"), func(addr string) {
		logger.Info("[browse] found board", "addr", addr)
		fmt.Println("ws://" + addr + "/ws")
	})
}
