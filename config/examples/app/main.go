package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Ducr/taro-mobile-open/config"
	"github.com/Ducr/taro-mobile-open/httpx"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadApp("./bidctl.yaml", logger)
	if err != nil {
		log.Fatal(err)
	}

	app := cfg.Get()
	client, err := httpx.New(append(app.ClientOptions(), httpx.WithLogger(logger))...)
	if err != nil {
		log.Fatal(err)
	}
	config.Bind(cfg, client, logger)

	cfg.OnChange(func(old, new config.App) {
		if config.Changed(old.UI, new.UI) {
			log.Printf("[UI] 配置变更: %+v", new.UI)
		}
	})

	d := client.Defaults()
	fmt.Printf("接口地址: %s\n", d.BaseURL)
	fmt.Printf("超时: %s\n", d.Timeout)
	fmt.Printf("平台: %s\n", app.Platform)

	fmt.Println("\n在本目录运行；修改 bidctl.yaml 将触发回调，Ctrl+C 退出")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
