package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/config"
	"github.com/Ducr/taro-mobile-open/httpx"
	"github.com/Ducr/taro-mobile-open/notify"
	"github.com/Ducr/taro-mobile-open/observability"
	"github.com/Ducr/taro-mobile-open/project"
	"github.com/Ducr/taro-mobile-open/storage"
	"github.com/Ducr/taro-mobile-open/version"
)

// app holds what the subcommands share. It is populated by setup before any
// command that talks to the backend runs.
type app struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	cfgPath  string
	baseURL  string
	platform string

	settings config.App
	logger   *zap.Logger
	store    storage.Store
	notifier notify.Notifier
	client   *httpx.Client
	projects *project.Service

	closers []func() error
	done    chan struct{}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:          "bidctl",
		Short:        "投标系统命令行客户端",
		SilenceUsage: true,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "配置文件路径 (yaml, json, toml)")
	pf.StringVar(&a.baseURL, "base-url", "", "接口地址，覆盖配置文件")
	pf.StringVar(&a.platform, "platform", "", "运行平台 (web, embedded)，覆盖配置文件")

	root.AddCommand(
		newProjectCmd(a),
		newTokenCmd(a),
		newUploadCmd(a),
		newVersionCmd(a),
	)
	return root
}

// withClient wraps a RunE so the client is built before and torn down after it.
func (a *app) withClient(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.teardown()
		if err := a.setup(); err != nil {
			return err
		}
		return run(cmd, args)
	}
}

func (a *app) setup() error {
	cfg, err := config.LoadApp(a.cfgPath, nil)
	if err != nil {
		return err
	}

	settings := cfg.Get()
	if a.baseURL != "" {
		settings.BaseURL = a.baseURL
	}
	if a.platform != "" {
		settings.Platform = a.platform
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.Storage.Driver == storage.DriverFile && settings.Storage.Path == "" {
		path, err := defaultStorePath()
		if err != nil {
			return err
		}
		settings.Storage.Path = path
	}

	logger, err := observability.NewLogger(settings.Log)
	if err != nil {
		return fmt.Errorf("bidctl: logger: %w", err)
	}
	a.settings = settings
	a.logger = logger
	a.closers = append(a.closers, func() error { _ = logger.Sync(); return nil })

	store, closeStore, err := storage.Open(settings.Storage)
	if err != nil {
		return err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)
	logger.Debug("settings loaded", zap.String("config", cfg.Path()), zap.String("store", storeLocation(store, settings.Storage)))

	platform, _ := httpx.ParsePlatform(settings.Platform)
	adapter, err := httpx.NewAdapter(platform)
	if err != nil {
		return err
	}

	a.notifier = notify.NewConsole(a.errOut, logger)
	opts := append(settings.ClientOptions(),
		httpx.WithAdapter(adapter),
		httpx.WithStore(store),
		httpx.WithNotifier(a.notifier),
		httpx.WithNavigator(notify.NewLogNavigator(a.errOut, logger)),
		httpx.WithLogger(logger),
		httpx.WithUserAgent(version.Get().UserAgent()),
	)
	client, err := httpx.New(opts...)
	if err != nil {
		return err
	}
	a.client = client
	a.projects = project.NewService(client, store)

	// Flag overrides stay in effect; later file edits only reach fields the
	// flags did not set.
	if a.baseURL == "" {
		config.Bind(cfg, client, logger)
	}

	a.done = make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			n := client.AbortAll()
			logger.Warn("interrupted, aborting in-flight requests", zap.String("signal", s.String()), zap.Int("aborted", n))
		case <-a.done:
		}
	}()
	return nil
}

func (a *app) teardown() {
	if a.done != nil {
		close(a.done)
		a.done = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

func defaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("bidctl: locate home directory: %w", err)
	}
	return filepath.Join(home, ".bidctl", "store.json"), nil
}

func storeLocation(s storage.Store, cfg storage.Config) string {
	switch st := s.(type) {
	case *storage.File:
		return st.Path()
	case *storage.Memory:
		return fmt.Sprintf("memory (%d keys)", st.Len())
	}
	return cfg.Driver
}
