package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"time"

	"github.com/geosfm/satba/explorer"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type config struct {
	explorerAddress string
	metricsAddress  string
}

func main() {
	var metricsAddr string
	var explorerAddr string
	var resultsDirectory string
	var scanIntervalSeconds int

	flag.StringVar(&metricsAddr, "metrics-address", ":9203", "The address the metrics endpoint binds to.")
	flag.StringVar(&explorerAddr, "explorer-address", ":9205", "The address that the explorer endpoint binds to.")
	flag.StringVar(&resultsDirectory, "resultsDirectory", "/tmp/satbaResults", "The directory with the result files.")
	flag.IntVar(&scanIntervalSeconds, "scanInterval", 60, "How often to rescan the results directory, in seconds.")
	flag.Parse()

	cfg := &config{
		metricsAddress:  metricsAddr,
		explorerAddress: explorerAddr,
	}

	expl := &explorer.ResultsExplorer{
		FilenameBase: resultsDirectory,
	}
	if err := expl.Initialize(scanIntervalSeconds); err != nil {
		log.Printf("failed to initialize explorer: %v\n", err)
	}

	explorerRouter := mux.NewRouter().StrictSlash(true)
	explorerRouter.HandleFunc("/getPasses", expl.GetPasses).Methods("GET")
	explorerRouter.HandleFunc("/getImageErrors", expl.GetImageErrors).Methods("GET")
	explorerRouter.HandleFunc("/getWorstTracks", expl.GetWorstTracks).Methods("GET")

	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(cfg.metricsAddress, nil)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	explorerServer := &http.Server{
		Addr:    cfg.explorerAddress,
		Handler: explorerRouter,
	}
	go func() {
		log.Printf("explorer service listening on port %s\n", cfg.explorerAddress)
		if err := explorerServer.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				log.Fatal(err)
			}
		}
	}()

	<-stop
	log.Println("explorer service shutting down")
	expl.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := explorerServer.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
