package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jlin-dev/feedstream/config"
	"github.com/jlin-dev/feedstream/feed"
	"github.com/jlin-dev/feedstream/router"
	"github.com/jlin-dev/feedstream/scheduler"
)

func main() {
	config.InitConfig()

	// Run database migrations
	config.MigrateDB()

	var sched *scheduler.Scheduler
	if config.AppConfig.Scheduler.Enabled {
		sched = scheduler.New(feed.Options{
			Timeout:      config.AppConfig.FetchTimeout(),
			Concurrency:  config.AppConfig.FetchConcurrency(),
			MaxFeedBytes: config.AppConfig.FetchMaxFeedBytes(),
		})
		if err := sched.Start(config.AppConfig.Scheduler.Spec); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	r := router.InitRouter()
	port := config.AppConfig.App.Port
	if port == "" {
		port = ":8080"
	}
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("Shutdown Server ...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}
