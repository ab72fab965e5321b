// Command pegrace runs the Peg Race game.
//
// It supports three commands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket, /metrics and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" runs the line-oriented console on stdin/stdout
//
// Settings come from an optional pegrace.yaml, PEGRACE_* environment variables (a .env
// file is loaded first) and the flags below, in increasing precedence.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/pegrace/api"
	"github.com/wricardo/pegrace/console"
	"github.com/wricardo/pegrace/game/config"
	"github.com/wricardo/pegrace/game/service"
	"github.com/wricardo/pegrace/game/session"
	"github.com/wricardo/pegrace/logger"
	"github.com/wricardo/pegrace/monitor"
	"github.com/wricardo/pegrace/settings"
	"github.com/wricardo/pegrace/transport/mcp"
	"github.com/wricardo/pegrace/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Peg Race Server"
)

func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(envErr).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the root command. envErr is the result of loading .env and is reported
// once a logger exists.
func newApp(envErr error) *cli.Command {
	return &cli.Command{
		Name:    "pegrace",
		Usage:   AppName,
		Version: Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP server with REST API, WebSocket, metrics and MCP endpoint",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withRuntime(cmd, envErr, func(rt *runtime) error { return runHTTPServer(ctx, rt) })
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp"},
				Usage:   "run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "api-url",
						Value: "http://localhost:8080",
						Usage: "external REST API to proxy; an internal server starts when it is unreachable",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withRuntime(cmd, envErr, func(rt *runtime) error {
						return runStdioMCP(ctx, rt, cmd.String("api-url"))
					})
				},
			},
			{
				Name:  "play",
				Usage: "play on the terminal: start, roll <n>, move <key>, print, abort, quit",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, log, err := loadSettings(cmd, envErr)
					if err != nil {
						return err
					}
					defer log.Sync()
					return runConsole(ctx, s, log, os.Stdin, os.Stdout)
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withRuntime(cmd, envErr, func(rt *runtime) error { return runHTTPServer(ctx, rt) })
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "settings",
			Value: ".",
			Usage: "directory searched for pegrace.yaml",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "HTTP listen address host:port (overrides server.host and server.port)",
		},
		&cli.StringFlag{
			Name:  "config-dir",
			Usage: "directory containing game presets",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "session storage backend: file or sqlite",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
}

// loadSettings reads settings and applies flag overrides.
func loadSettings(cmd *cli.Command, envErr error) (*settings.Settings, *zap.SugaredLogger, error) {
	s, err := settings.Load(cmd.String("settings"))
	if err != nil {
		return nil, nil, err
	}
	if err := applyFlags(s, cmd); err != nil {
		return nil, nil, err
	}

	log, err := logger.New(s.Log.Debug)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case envErr == nil:
		log.Debug("loaded environment variables from .env file")
	case !errors.Is(envErr, os.ErrNotExist):
		log.Warnw("error loading .env file", "error", envErr)
	}
	return s, log, nil
}

func applyFlags(s *settings.Settings, cmd *cli.Command) error {
	if addr := cmd.String("addr"); addr != "" {
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("--addr: %w", err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("--addr: invalid port %q", portStr)
		}
		s.Server.Host, s.Server.Port = host, port
	}
	if dir := cmd.String("config-dir"); dir != "" {
		s.Game.ConfigDir = dir
	}
	if backend := cmd.String("backend"); backend != "" {
		s.Sessions.Backend = backend
	}
	if cmd.Bool("debug") {
		s.Log.Debug = true
	}
	return s.Validate()
}

// runtime holds the wired services shared by serve and mcp.
type runtime struct {
	settings    *settings.Settings
	log         *zap.SugaredLogger
	configs     *config.Manager
	sessions    *session.Manager
	persistence session.SessionPersistence
	monitor     *monitor.Monitor
	hub         *websocket.Hub
	service     service.GameService
	close       func() error
}

func withRuntime(cmd *cli.Command, envErr error, run func(*runtime) error) error {
	s, log, err := loadSettings(cmd, envErr)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Infow("starting", "app", AppName, "version", Version, "command", cmd.Name)
	rt, err := initializeServices(s, log)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := rt.sessions.SaveAllSessions(); err != nil {
			log.Warnw("failed to save sessions on shutdown", "error", err)
		}
		if err := rt.close(); err != nil {
			log.Warnw("failed to close session storage", "error", err)
		}
	}()
	return run(rt)
}

// initializeServices wires the preset and session managers and the game service.
func initializeServices(s *settings.Settings, log *zap.SugaredLogger) (*runtime, error) {
	configManager, err := config.NewManager(s.Game.ConfigDir,
		config.WithLogger(log.Named("config")),
		config.WithDefault(s.Game.DefaultConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	rt := &runtime{settings: s, log: log, configs: configManager, close: func() error { return nil }}

	switch s.Sessions.Backend {
	case settings.BackendSQLite:
		store, err := session.OpenSQLitePersistence(s.Sessions.SQLitePath, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		rt.persistence, rt.close = store, store.Close
	default:
		store, err := session.NewFilePersistence(s.Sessions.Dir, configManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create session persistence: %w", err)
		}
		rt.persistence = store
	}

	rt.monitor = monitor.NewMonitor("pegrace")
	rt.sessions = session.NewManagerWithPersistence(rt.persistence,
		session.WithLogger(log.Named("session")),
		session.WithGauge(rt.monitor))
	if err := rt.sessions.LoadPersistedSessions(); err != nil {
		log.Warnw("failed to load persisted sessions", "error", err)
	}

	// The hub only delivers once Run is started by the command that serves /ws.
	rt.hub = websocket.NewHub(websocket.WithLogger(log.Named("ws")))
	rt.service = service.NewGameService(rt.sessions, configManager,
		service.WithRecorder(rt.monitor),
		service.WithPublisher(rt.hub),
		service.WithLogger(log.Named("game")))
	return rt, nil
}

// runHTTPServer serves the REST API, WebSocket hub, metrics and an /mcp proxy endpoint
// until ctx is cancelled.
func runHTTPServer(ctx context.Context, rt *runtime) error {
	log := rt.log
	addr := rt.settings.Addr()

	go rt.hub.Run(ctx)

	apiServer := api.NewServer(rt.service, rt.hub,
		api.WithLogger(log.Named("api")),
		api.WithMetrics(rt.monitor.Handler()))

	mcpClient := mcp.NewClient("http://"+addr, mcp.WithLogger(log.Named("mcp")))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, rt)
	}()
	go func() {
		defer wg.Done()
		storageSyncRoutine(ctx, rt, 5*time.Second)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("HTTP server listening",
			"addr", addr,
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws?session=<session_id>",
			"mcp", "http://"+addr+"/mcp",
			"metrics", "http://"+addr+"/metrics")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP server shutdown error", "error", err)
	}

	wg.Wait()
	log.Info("server stopped")
	return serveErr
}

// mcpHandler answers JSON-RPC MCP messages posted over HTTP.
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// sessionCleanupRoutine periodically drops sessions idle for longer than sessions.max_idle.
func sessionCleanupRoutine(ctx context.Context, rt *runtime) {
	ticker := time.NewTicker(rt.settings.Sessions.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rt.sessions.CleanupExpiredSessions(rt.settings.Sessions.MaxIdle); removed > 0 {
				rt.log.Infow("cleaned up expired sessions", "count", removed)
			}
		}
	}
}

// storageSyncRoutine periodically prunes sessions whose stored copy was removed behind
// the server's back, such as a session file deleted by hand.
func storageSyncRoutine(ctx context.Context, rt *runtime, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruneOrphans(rt)
		}
	}
}

// pruneOrphans removes in-memory sessions that no longer exist in storage.
func pruneOrphans(rt *runtime) int {
	pruned := 0
	for _, s := range rt.sessions.List() {
		if rt.persistence.Exists(s.ID) {
			continue
		}
		if err := rt.sessions.DeleteFromMemory(s.ID); err == nil {
			pruned++
			rt.log.Infow("pruned session from memory", "session", s.ID)
		}
	}
	return pruned
}

// runStdioMCP runs an MCP stdio server. It proxies to apiURL when that server answers,
// otherwise it starts an internal HTTP API on a random loopback port.
func runStdioMCP(ctx context.Context, rt *runtime, apiURL string) error {
	log := rt.log
	baseURL := apiURL

	log.Infow("checking for external API server", "url", apiURL)
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(apiURL + "/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Infow("using external API server for MCP", "url", apiURL)
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		go rt.hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(rt.service, rt.hub, api.WithLogger(log.Named("api"))),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		log.Infow("started internal HTTP server for MCP stdio", "url", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL, mcp.WithLogger(log.Named("mcp")))
	log.Info("MCP stdio server ready")
	return server.ServeStdio(mcpClient.GetMCPServer())
}

// runConsole plays on in/out with the configured presets.
func runConsole(ctx context.Context, s *settings.Settings, log *zap.SugaredLogger, in io.Reader, out io.Writer) error {
	configManager, err := config.NewManager(s.Game.ConfigDir,
		config.WithLogger(log.Named("config")),
		config.WithDefault(s.Game.DefaultConfig))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	c := console.New(
		console.WithLogger(log.Named("console")),
		console.WithConfig(configManager.GetDefault()),
		console.WithPresets(configManager))
	return c.Run(ctx, in, out)
}
