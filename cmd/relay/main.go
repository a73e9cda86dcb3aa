package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"main/internal/broadcast"
	"main/internal/config"
	"main/internal/dedup"
	"main/internal/dispatch"
	"main/internal/downstream"
	"main/internal/gate"
	"main/internal/journal"
	"main/internal/model"
	"main/internal/reload"
	"main/internal/webhook"
	"main/pkg/exception"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
)

const (
	_defaultHTTPAddr  = ":80"
	_defaultWSAddr    = ":9528"
	_signalQueueCap   = 1024
	_shutdownGraceful = 5 * time.Second
)

// gateSubmitter routes dispatcher submissions through the gate, which
// may not exist yet: the reload trigger builds it lazily once the
// account table is non-empty.
type gateSubmitter struct {
	gate atomic.Pointer[gate.Gate]
}

func (s *gateSubmitter) Submit(ctx context.Context, intent model.OrderIntent) error {
	g := s.gate.Load()
	if g == nil {
		return exception.ErrGateUninitialized
	}
	return g.Submit(ctx, intent)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if addr := os.Getenv("PYROSCOPE_ADDR"); addr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "signal-relay",
			ServerAddress:   addr,
		})
		if err != nil {
			logs.Warnf("pyroscope start failed: %+v", err)
		} else {
			defer func() { _ = profiler.Stop() }()
		}
	}

	paths := config.DefaultPaths()
	if p := os.Getenv("TICKER_MAPPING_FILE"); p != "" {
		paths.MappingFile = p
	}
	if p := os.Getenv("ACCOUNTS_FILE"); p != "" {
		paths.AccountsFile = p
	}

	mappings, accounts := config.Load(paths)
	store := config.NewStore(mappings, accounts)
	logs.Infof("configuration loaded: %d mappings, %d accounts", len(mappings), len(accounts))

	var sinks []dispatch.Sink

	wsEnabled := !strings.EqualFold(os.Getenv("WS_ENABLED"), "false")
	var hub *broadcast.Hub
	if wsEnabled {
		hub = broadcast.NewHub()
		sinks = append(sinks, hub)
	}

	var signalJournal *journal.Journal
	if dsn := os.Getenv("JOURNAL_PG_DSN"); dsn != "" {
		j, err := journal.New(dsn)
		if err != nil {
			logs.Warnf("journal disabled, err: %+v", err)
		} else {
			signalJournal = j
			sinks = append(sinks, j)
			go j.Run(ctx)
		}
	}

	submitter := &gateSubmitter{}
	ensureOrderService := func() {
		if submitter.gate.Load() != nil {
			return
		}
		url := os.Getenv("DOWNSTREAM_WS_URL")
		if url == "" {
			return
		}
		enabled := 0
		for _, account := range store.Accounts() {
			if account.Enabled {
				enabled++
			}
		}
		if enabled == 0 {
			return
		}
		client := downstream.NewClient(ctx, url,
			os.Getenv("DOWNSTREAM_ACCESS_ID"), os.Getenv("DOWNSTREAM_SECRET_KEY"))
		g := gate.New(client)
		g.Connect(ctx)
		submitter.gate.Store(g)
	}
	ensureOrderService()

	dispatcher := dispatch.New(store, dedup.New(dedup.DefaultWindow), submitter, _signalQueueCap, sinks...)
	go dispatcher.Run(ctx)

	trigger := reload.NewTrigger(reload.DefaultDebounce, reload.DefaultSettle, func() {
		m, a := config.Load(paths)
		store.Reload(m, a)
		logs.Infof("configuration reloaded: %d mappings, %d accounts", len(m), len(a))
		ensureOrderService()
	})
	go reload.PollFiles(ctx, trigger, reload.DefaultPollInterval, paths.MappingFile, paths.AccountsFile)

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = _defaultHTTPAddr
	}
	mux := http.NewServeMux()
	webhook.NewHandler(dispatcher).Register(mux)
	server := &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Errorf("webhook server stopped, err: %+v", err)
			cancel()
		}
	}()

	var wsServer *http.Server
	if wsEnabled {
		wsAddr := os.Getenv("WS_ADDR")
		if wsAddr == "" {
			wsAddr = _defaultWSAddr
		}
		wsMux := http.NewServeMux()
		wsMux.Handle("/", hub)
		wsServer = &http.Server{Addr: wsAddr, Handler: wsMux}
		go func() {
			if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logs.Errorf("broadcast server stopped, err: %+v", err)
			}
		}()
		logs.Infof("broadcast server listening on %s", wsServer.Addr)
	}

	logs.Infof("signal relay started, webhook on %s", httpAddr)
	logs.Infof("mapping file: %s, accounts file: %s", paths.MappingFile, paths.AccountsFile)

	select {
	case <-sys.Shutdown():
	case <-ctx.Done():
	}
	logs.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), _shutdownGraceful)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
	if wsServer != nil {
		_ = wsServer.Shutdown(shutdownCtx)
	}

	dispatcher.Close()
	if g := submitter.gate.Load(); g != nil {
		g.Teardown()
	}
	if hub != nil {
		hub.Close()
	}
	if signalJournal != nil {
		_ = signalJournal.Close()
	}
}
