package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/geosfm/satba/lib/ba"
	"github.com/geosfm/satba/lib/matching"
	"github.com/geosfm/satba/lib/reporter"
	"github.com/geosfm/satba/lib/settings"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func loadScene(filename string) (*ba.SceneData, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	scene := &ba.SceneData{}
	if err := json.Unmarshal(b, scene); err != nil {
		return nil, err
	}
	return scene, nil
}

func main() {
	sceneFile := flag.String("scene", "", "Scene description file (cameras, footprints, keypoints, matches).")
	resultsDirectory := flag.String("resultsDirectory", ".", "Directory to write adjusted cameras and reports to.")
	selectionRounds := flag.Int("selectionRounds", 30, "Number of tree-growth rounds for track selection.")
	skipSelection := flag.Bool("skipTrackSelection", false, "Adjust on all tracks instead of a selected subset.")
	skipCleaning := flag.Bool("skipOutlierCleaning", false, "Stop after the first optimization pass.")
	loss := flag.String("loss", settings.LOSS_SOFT_L1, "Robust loss for the first pass: soft_l1 or linear.")
	optimize := flag.String("optimize", settings.OPT_CAMERAS_AND_POINTS,
		"Parameter blocks to adjust: cameras_and_points, cameras or points.")
	matchEngine := flag.String("matchEngine", settings.ENGINE_INPROCESS,
		"Engine for pairwise matching when the scene has no precomputed matches: inprocess or kafka.")
	kafkaURL := flag.String("kafkaURL", "", "The URL for the kafka broker.")
	metricsAddress := flag.String("metricsAddress", "", "Serve prometheus metrics on this address if set.")
	flag.Parse()

	if *sceneFile == "" {
		log.Fatal("need a -scene file")
	}

	cfg := settings.BaSettings{
		SelectionRounds:     *selectionRounds,
		SkipTrackSelection:  *skipSelection,
		SkipOutlierCleaning: *skipCleaning,
		Loss:                *loss,
		Optimize:            *optimize,
		MatchEngine:         *matchEngine,
		KafkaURL:            *kafkaURL,
		ResultsDirectory:    *resultsDirectory,
	}.ComputeSettingsFields()

	if *metricsAddress != "" {
		router := mux.NewRouter().StrictSlash(true)
		router.Path("/metrics").Handler(promhttp.Handler())
		go func() {
			log.Printf("serving metrics on %s\n", *metricsAddress)
			if err := http.ListenAndServe(*metricsAddress, router); err != nil {
				log.Printf("metrics server stopped: %v\n", err)
			}
		}()
	}

	scene, err := loadScene(*sceneFile)
	if err != nil {
		log.Fatalf("failed to load scene from %s: %v", *sceneFile, err)
	}
	log.Printf("loaded scene with %d cameras and %d precomputed matches\n",
		len(scene.Cameras), len(scene.Matches))

	var engine matching.Engine
	if scene.Matches == nil {
		switch cfg.MatchEngine {
		case settings.ENGINE_KAFKA:
			engine = &matching.KafkaEngine{}
		default:
			log.Fatal("the scene has no precomputed matches; only the kafka engine can match without an in-process matcher")
		}
	}

	reporters := []reporter.Reporter{
		reporter.NewCsvReporter(cfg.ResultsDirectory),
		reporter.NewParquetReporter(cfg.ResultsDirectory, cfg.MaxRowsPerRowGroup),
	}

	pipeline, err := ba.NewPipeline(cfg, scene, engine, &ba.LMSolver{}, nil, reporters)
	if err != nil {
		log.Fatalf("failed to set up pipeline: %v", err)
	}
	if err := pipeline.Run(); err != nil {
		log.Fatalf("adjustment failed: %v", err)
	}
	log.Println("scene adjusted")
}
