package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/httpx"
	"github.com/Ducr/taro-mobile-open/notify"
)

func main() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":1001,"message":"项目不存在"}`))
	}))
	defer srv.Close()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	client, err := httpx.New(
		httpx.WithBaseURL(srv.URL),
		httpx.WithLogger(logger),
		httpx.WithMetrics(httpx.NewMetrics(reg)),
		httpx.WithNotifier(notify.NewConsole(os.Stdout, logger)),
	)
	if err != nil {
		panic(err)
	}
	client.AddRequestInterceptor(httpx.RequestInterceptor{
		Fulfilled: func(ctx context.Context, cfg *httpx.RequestConfig, _ *httpx.RequestConfig) (*httpx.RequestConfig, error) {
			cfg.Header.Set("X-Tenant", "tenant-a")
			return cfg, nil
		},
	})

	call, err := client.Get(context.Background(), "/project/detail", nil)
	if err != nil {
		panic(err)
	}
	_, err = call.Wait()
	fmt.Println("error:", err)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	_, _ = os.Stdout.Write(rec.Body.Bytes())
}
