package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shaharia-lab/jsonrpc"
	"github.com/shaharia-lab/jsonrpc/httpserver"
	"github.com/shaharia-lab/jsonrpc/internal/config"
	"github.com/shaharia-lab/jsonrpc/stdioserver"
	"github.com/shaharia-lab/jsonrpc/wsserver"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a TOML config file")
	envFile := flag.String("env-file", ".env", "path to a .env file")
	stdio := flag.Bool("stdio", false, "serve newline-delimited JSON on stdin/stdout instead of HTTP")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logOut := io.Writer(os.Stdout)
	if *stdio {
		logOut = os.Stderr
	}
	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	dispatcher := jsonrpc.NewDispatcher(
		jsonrpc.NewRegistry(registrations(logger)...),
		jsonrpc.UseDispatcherLogger(logger),
	)
	if err := dispatcher.Init(); err != nil {
		log.Fatalf("Failed to initialize RPC service: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *stdio {
		err := stdioserver.NewServer(dispatcher, os.Stdin, os.Stdout,
			stdioserver.UseLogger(logger),
			stdioserver.UseMaxLineSize(int(cfg.Server.MaxRequestSize)),
		).Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("StdIO server error: %v", err)
		}
		return
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newRouter(cfg, dispatcher, logger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("RPC Server running on http://%s%s", cfg.Server.Address, cfg.Server.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Warn("Shutting down server...")
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Error during server shutdown: %v", err)
	}
	logger.Info("Server gracefully shut down")
}

func loadConfig(path, envFile string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	vars, err := config.LoadEnvFile(envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(config.Lookup(vars)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRouter(cfg *config.Config, dispatcher *jsonrpc.Dispatcher, logger jsonrpc.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	rpc := httpserver.NewServer(dispatcher,
		httpserver.UseLogger(logger),
		httpserver.UsePath(cfg.Server.Path),
		httpserver.UseMaxRequestSize(cfg.Server.MaxRequestSize),
		httpserver.UseRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst),
		httpserver.UseAllowedOrigins(cfg.Server.AllowedOrigins...),
	)
	r.POST(cfg.Server.Path, httpserver.GinHandler(rpc))
	r.OPTIONS(cfg.Server.Path, httpserver.GinHandler(rpc))

	if cfg.Server.WebSocketPath != "" {
		ws := wsserver.NewHandler(dispatcher,
			wsserver.UseLogger(logger),
			wsserver.UseReadLimit(cfg.Server.MaxRequestSize),
			wsserver.UseOriginPatterns(originHosts(cfg.Server.AllowedOrigins)...),
		)
		r.GET(cfg.Server.WebSocketPath, gin.WrapH(ws))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "methods": len(dispatcher.Methods())})
	})
	return r
}

// originHosts strips the scheme from CORS origins to form WebSocket origin patterns.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		if i := strings.Index(origin, "://"); i >= 0 {
			origin = origin[i+3:]
		}
		hosts = append(hosts, origin)
	}
	return hosts
}
