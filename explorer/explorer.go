package explorer

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"
)

// A ResultsExplorer watches a results directory for residual report
// files and serves their aggregates. Scanning runs on a ticker so new
// passes appear while an adjustment is still in progress.
type ResultsExplorer struct {
	FilenameBase string

	mu     sync.RWMutex
	passes map[int]*passData

	ticker *time.Ticker
}

func (r *ResultsExplorer) Initialize(scanIntervalSeconds int) error {
	r.passes = make(map[int]*passData)
	if err := r.scanResultFiles(); err != nil {
		return err
	}
	r.ticker = time.NewTicker(time.Duration(scanIntervalSeconds) * time.Second)
	go func() {
		for range r.ticker.C {
			if err := r.scanResultFiles(); err != nil {
				log.Printf("result scan failed: %v\n", err)
			}
		}
	}()
	return nil
}

// parsePassFromFilename recognizes the residual files the parquet
// reporter writes.
func parsePassFromFilename(name string) (int, error) {
	var pass int
	n, err := fmt.Sscanf(name, "residuals_pass_%d.pq", &pass)
	if err != nil || n != 1 {
		return 0, fmt.Errorf("%s is not a residuals file", name)
	}
	return pass, nil
}

func (r *ResultsExplorer) scanResultFiles() error {
	entries, err := os.ReadDir(r.FilenameBase)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		passId, err := parsePassFromFilename(e.Name())
		if err != nil {
			// Not a residuals file.
			continue
		}
		r.mu.RLock()
		_, known := r.passes[passId]
		r.mu.RUnlock()
		if known {
			continue
		}
		data, err := readPassFile(r.FilenameBase, e.Name(), passId)
		if err != nil {
			log.Printf("failed to read %s: %v\n", e.Name(), err)
			continue
		}
		r.mu.Lock()
		r.passes[passId] = data
		r.mu.Unlock()
		log.Printf("explorer loaded pass %d with %d observations\n", passId, data.pass.NObservations)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v\n", err)
	}
}

func (r *ResultsExplorer) passFromRequest(req *http.Request) (*passData, error) {
	passId, err := strconv.Atoi(req.URL.Query().Get("pass"))
	if err != nil {
		return nil, fmt.Errorf("missing or bad pass parameter")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.passes[passId]
	if !ok {
		return nil, fmt.Errorf("no data for pass %d", passId)
	}
	return data, nil
}

// GetPasses lists the known adjustment passes, most recent last.
func (r *ResultsExplorer) GetPasses(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	passes := make([]Pass, 0, len(r.passes))
	for _, data := range r.passes {
		passes = append(passes, data.pass)
	}
	r.mu.RUnlock()
	sort.Slice(passes, func(i, j int) bool { return passes[i].ID < passes[j].ID })
	writeJSON(w, passes)
}

// GetImageErrors returns the per-image residual aggregates of one pass.
func (r *ResultsExplorer) GetImageErrors(w http.ResponseWriter, req *http.Request) {
	data, err := r.passFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	images := make([]ImageErrors, 0, len(data.images))
	for _, img := range data.images {
		images = append(images, *img)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Image < images[j].Image })
	writeJSON(w, images)
}

// GetWorstTracks returns the tracks with the highest mean error after
// adjustment. The count parameter bounds the result, default 20.
func (r *ResultsExplorer) GetWorstTracks(w http.ResponseWriter, req *http.Request) {
	data, err := r.passFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	count := 20
	if c, err := strconv.Atoi(req.URL.Query().Get("count")); err == nil && c > 0 {
		count = c
	}
	tracks := make([]TrackErrors, 0, len(data.tracks))
	for _, trk := range data.tracks {
		tracks = append(tracks, *trk)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].MeanErrAfter > tracks[j].MeanErrAfter })
	if len(tracks) > count {
		tracks = tracks[:count]
	}
	writeJSON(w, tracks)
}

func (r *ResultsExplorer) Shutdown() {
	if r.ticker != nil {
		r.ticker.Stop()
	}
}
