package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andesco/catalogproxy/handlers"
	"github.com/andesco/catalogproxy/pkg/catalog"
	"github.com/andesco/catalogproxy/pkg/config"

	"github.com/akamensky/argparse"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	parser := argparse.NewParser("catalogproxy", "Catalog metadata proxy with normalized JSON output")

	port := parser.String("p", "port", &argparse.Options{
		Required: false,
		Help:     "Port the webserver will listen on. Overrides the configured listen address",
	})
	configPath := parser.String("c", "config", &argparse.Options{
		Required: false,
		Default:  os.Getenv("CONFIG"),
		Help:     "Path to a yaml configuration file",
	})
	envFile := parser.String("e", "env-file", &argparse.Options{
		Required: false,
		Default:  ".env",
		Help:     "Path to a .env file loaded before reading the environment",
	})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Warnf("could not load env file %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.Listen = ":" + *port
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	catalog.InitMetrics()

	var lister catalog.Lister = catalog.NewClient(cfg)
	if cfg.Redis.Addr != "" {
		cache := catalog.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer cache.Close()
		lister = catalog.NewCachedLister(lister, cache, time.Duration(cfg.CacheTime)*time.Second)
		log.WithField("addr", cfg.Redis.Addr).Info("response cache enabled")
	}

	app := handlers.NewApp(lister, cfg.CacheTime)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("listen", cfg.Listen).Info("starting catalog proxy")
	if err := app.Listen(cfg.Listen); err != nil {
		log.Fatal(err)
	}
}
