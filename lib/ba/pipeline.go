package ba

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/geosfm/satba/lib/geometry"
	"github.com/geosfm/satba/lib/matching"
	"github.com/geosfm/satba/lib/ranking"
	"github.com/geosfm/satba/lib/reporter"
	"github.com/geosfm/satba/lib/settings"
	"github.com/geosfm/satba/lib/stats"
	"github.com/geosfm/satba/lib/tracks"
)

// Pipeline states. Every stage requires the prior state and is safe to
// re-enter from it.
const (
	STATE_INITIAL = iota
	STATE_TRACKS_BUILT
	STATE_PARAMS_DEFINED
	STATE_OPTIMIZED
	STATE_OUTLIERS_CLEANED
	STATE_SAVED
)

// A SceneCamera is one image of the input scene: its approximate linear
// projection, ground footprint, crop offset and detected keypoints.
type SceneCamera struct {
	Name       string                     `json:"name"`
	Projection *geometry.ProjectionMatrix `json:"projection"`
	Footprint  geometry.Footprint         `json:"footprint"`
	Offset     geometry.Offset            `json:"offset"`
	Keypoints  []geometry.Point2          `json:"keypoints"`

	// Optional projected planar position per keypoint, used for the
	// geodetic consistency filter when present.
	Planar []geometry.Point2 `json:"planar,omitempty"`
}

// SceneData is the batch input for one adjustment run. When Matches is
// set the matching engine is skipped and the precomputed correspondences
// are used directly.
type SceneData struct {
	Cameras []SceneCamera          `json:"cameras"`
	Matches []tracks.PairwiseMatch `json:"matches,omitempty"`

	// The first NFixed cameras were adjusted in a previous run and are
	// held constant.
	NFixed int `json:"n_fixed"`
}

// A Pipeline owns the correspondence matrix for one adjustment run and
// drives the stages from track building to persisted output. The helper
// components all work on snapshots; only the stage transitions mutate
// pipeline state.
type Pipeline struct {
	config settings.BaSettings
	scene  *SceneData
	engine matching.Engine
	solver Solver
	fitter geometry.ModelFitter

	reporters []reporter.Reporter

	state int
	pass  int

	ps                 []*geometry.ProjectionMatrix
	c                  *tracks.CorrespondenceMatrix
	kpIndex            *tracks.KeypointIndex
	pairsToTriangulate []geometry.CameraPair

	params           *Params
	initialResiduals []float64
	result           *Result

	adjustedPs  []*geometry.ProjectionMatrix
	adjustedPts []geometry.Point3
}

// NewPipeline wires a pipeline. The engine may be nil when the scene
// carries precomputed matches; the fitter may be nil when no camera
// model refit is wanted.
func NewPipeline(config settings.BaSettings, scene *SceneData, engine matching.Engine,
	solver Solver, fitter geometry.ModelFitter, reporters []reporter.Reporter) (*Pipeline, error) {

	if len(scene.Cameras) < 2 {
		return nil, fmt.Errorf("need at least 2 cameras, got %d", len(scene.Cameras))
	}
	if solver == nil {
		return nil, fmt.Errorf("pipeline needs a solver")
	}
	ps := make([]*geometry.ProjectionMatrix, len(scene.Cameras))
	for i, cam := range scene.Cameras {
		if cam.Projection == nil {
			return nil, fmt.Errorf("camera %d has no projection matrix", i)
		}
		ps[i] = cam.Projection
	}
	names := make([]string, len(scene.Cameras))
	for i, cam := range scene.Cameras {
		names[i] = cam.Name
	}
	for _, r := range reporters {
		r.Initialize(config, names)
	}
	return &Pipeline{
		config:    config,
		scene:     scene,
		engine:    engine,
		solver:    solver,
		fitter:    fitter,
		reporters: reporters,
		ps:        ps,
		state:     STATE_INITIAL,
	}, nil
}

func (p *Pipeline) State() int { return p.state }

// Matrix returns a snapshot of the current correspondence matrix.
func (p *Pipeline) Matrix() *tracks.CorrespondenceMatrix {
	if p.c == nil {
		return nil
	}
	return p.c.Copy()
}

// AdjustedProjections returns the refined projection matrices after
// optimization.
func (p *Pipeline) AdjustedProjections() []*geometry.ProjectionMatrix { return p.adjustedPs }

func (p *Pipeline) requireState(want int, stage string) error {
	if p.state != want {
		return fmt.Errorf("%s requires pipeline state %d, current state is %d", stage, want, p.state)
	}
	return nil
}

// BuildTracks runs pair preselection, pairwise matching, the planar
// consistency filter and track building, then optionally track
// selection.
func (p *Pipeline) BuildTracks() error {
	if p.state != STATE_INITIAL {
		return fmt.Errorf("tracks are already built")
	}

	footprints := make([]geometry.Footprint, len(p.scene.Cameras))
	for i, cam := range p.scene.Cameras {
		footprints[i] = cam.Footprint
	}
	candidates, toTriangulate, err := matching.EligiblePairs(
		matching.AllPairs(len(p.ps)), footprints, p.ps, p.config, false)
	if err != nil {
		return err
	}
	p.pairsToTriangulate = toTriangulate

	matches := p.scene.Matches
	if matches == nil {
		matches, err = p.runMatching(candidates)
		if err != nil {
			return err
		}
	}

	planar := p.planarCoordinates()
	if planar != nil {
		matches, err = matching.FilterInconsistentMatches(matches, planar,
			p.config.ElbowPercentile, p.config.PlanarMargin)
		if err != nil {
			return err
		}
	}

	keypoints := make([][]tracks.Observation, len(p.scene.Cameras))
	for i, cam := range p.scene.Cameras {
		keypoints[i] = make([]tracks.Observation, len(cam.Keypoints))
		for k, kp := range cam.Keypoints {
			keypoints[i][k] = tracks.Observation{Col: kp.X, Row: kp.Y}
		}
	}
	c, kpIndex, err := tracks.BuildFromMatches(matches, keypoints)
	if err != nil {
		return err
	}
	p.c, p.kpIndex = c, kpIndex
	tracksBuilt.Set(float64(c.NTracks()))

	if !p.config.SkipTrackSelection {
		if err := p.selectTracks(); err != nil {
			return err
		}
	}
	tracksSelected.Set(float64(p.c.NTracks()))

	p.state = STATE_TRACKS_BUILT
	pipelineState.Set(float64(p.state))
	return nil
}

// runMatching submits every candidate pair to the engine and collects
// one result per pair.
func (p *Pipeline) runMatching(candidates []matching.MatchCandidate) ([]tracks.PairwiseMatch, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("scene has no precomputed matches and no engine is configured")
	}
	results := make(chan *matching.MatchResult, len(candidates))
	p.engine.Initialize(p.config, results)
	defer p.engine.Shutdown()

	for _, cand := range candidates {
		if err := p.engine.MatchPair(cand); err != nil {
			return nil, err
		}
	}
	matches := make([]tracks.PairwiseMatch, 0)
	for i := 0; i < len(candidates); i++ {
		result := <-results
		matches = append(matches, result.Matches...)
	}
	return matches, nil
}

func (p *Pipeline) planarCoordinates() [][]geometry.Point2 {
	planar := make([][]geometry.Point2, len(p.scene.Cameras))
	for i, cam := range p.scene.Cameras {
		if len(cam.Planar) != len(cam.Keypoints) {
			return nil
		}
		planar[i] = cam.Planar
	}
	return planar
}

func (p *Pipeline) selectTracks() error {
	selected, err := ranking.SelectTracks(p.c, p.ps, p.pairsToTriangulate, p.config.SelectionRounds)
	if err != nil {
		return err
	}
	kept, mapping, err := p.c.KeepTracks(selected)
	if err != nil {
		return err
	}
	p.c = kept
	p.remapKeypointIndex(mapping)
	return nil
}

func (p *Pipeline) remapKeypointIndex(mapping []int) {
	if p.kpIndex == nil {
		return
	}
	remapped := tracks.NewKeypointIndex(p.c.NCameras(), p.c.NTracks())
	for newT, oldT := range mapping {
		for cam := 0; cam < p.c.NCameras(); cam++ {
			if kp, ok := p.kpIndex.At(cam, oldT); ok {
				remapped.Set(cam, newT, kp)
			}
		}
	}
	p.kpIndex = remapped
}

// DefineParameters derives the solver inputs from the current matrix.
// Re-entered after outlier cleaning.
func (p *Pipeline) DefineParameters() error {
	if p.state != STATE_TRACKS_BUILT && p.state != STATE_OUTLIERS_CLEANED {
		return fmt.Errorf("cannot define parameters in state %d", p.state)
	}
	log.Println("defining ba input parameters")
	params, err := Setup(p.ps, p.c, p.pairsToTriangulate, p.scene.NFixed, p.config.Optimize)
	if err != nil {
		return err
	}
	p.params = params
	p.state = STATE_PARAMS_DEFINED
	pipelineState.Set(float64(p.state))
	return nil
}

// Optimize runs the solver on the current parameters. Non-convergence
// is reported through the residual summary, never retried here.
func (p *Pipeline) Optimize() error {
	if err := p.requireState(STATE_PARAMS_DEFINED, "optimize"); err != nil {
		return err
	}
	x0 := p.params.Pack()
	p.initialResiduals = p.params.Residuals(x0)

	result, err := p.solver.Solve(&Problem{
		X0:       x0,
		Fun:      p.params.Residuals,
		Sparsity: p.params.Sparsity(),
		Loss:     p.config.Loss,
		FScale:   p.config.FScale,
		Ftol:     p.config.Ftol,
		Xtol:     p.config.Xtol,
	})
	if err != nil {
		return err
	}
	p.result = result
	solverIterations.Set(float64(result.Iterations))
	if !result.Converged {
		log.Printf("solver did not converge (cost %f after %d iterations)\n",
			result.Cost, result.Iterations)
	}

	p.adjustedPs, err = p.params.RecoverProjections(result.X, p.ps)
	if err != nil {
		return err
	}
	_, p.adjustedPts, err = p.params.Recover(result.X)
	if err != nil {
		return err
	}

	p.pass++
	if err := p.reportErrors(); err != nil {
		return err
	}
	p.state = STATE_OPTIMIZED
	pipelineState.Set(float64(p.state))
	return nil
}

// reportErrors sends per-image summaries and per-observation residuals
// for the pass that just finished to the configured reporters.
func (p *Pipeline) reportErrors() error {
	before, err := ObservationErrors(p.initialResiduals)
	if err != nil {
		return err
	}
	after, err := ObservationErrors(p.result.Residuals)
	if err != nil {
		return err
	}
	meanBefore, _ := stats.MeanStd(before)
	meanAfter, _ := stats.MeanStd(after)
	meanReprojectionError.WithLabelValues("before").Set(meanBefore)
	meanReprojectionError.WithLabelValues("after").Set(meanAfter)
	log.Printf("pass %d: mean reprojection error %.4f px before, %.4f px after\n",
		p.pass, meanBefore, meanAfter)

	summaries := make([]reporter.ImageErrorSummary, len(p.ps))
	for i := range summaries {
		summaries[i] = reporter.ImageErrorSummary{
			Pass:  p.pass,
			Image: i,
			Name:  p.scene.Cameras[i].Name,
		}
	}
	residualRows := make([]reporter.ObservationResidual, len(before))
	for k := range before {
		cam := p.params.CamInd[k]
		s := &summaries[cam]
		s.NObs++
		s.MeanBefore += before[k]
		s.MeanAfter += after[k]
		if after[k] > s.MaxAfter {
			s.MaxAfter = after[k]
		}
		residualRows[k] = reporter.ObservationResidual{
			Pass:      p.pass,
			Camera:    cam,
			Track:     p.params.TrackIds[p.params.PtsInd[k]],
			Col:       p.params.Pts2d[k].X,
			Row:       p.params.Pts2d[k].Y,
			ErrBefore: before[k],
			ErrAfter:  after[k],
		}
	}
	for i := range summaries {
		if summaries[i].NObs > 0 {
			summaries[i].MeanBefore /= float64(summaries[i].NObs)
			summaries[i].MeanAfter /= float64(summaries[i].NObs)
		}
	}
	for _, r := range p.reporters {
		if err := r.AddImageSummaries(summaries); err != nil {
			return err
		}
		if err := r.AddObservationResiduals(residualRows); err != nil {
			return err
		}
	}
	return nil
}

// CleanOutliers estimates an error threshold from the elbow of the
// post-optimization residual distribution, floored at the configured
// minimum, drops the observations above it and redefines the parameters
// on the cleaned matrix.
func (p *Pipeline) CleanOutliers() error {
	if err := p.requireState(STATE_OPTIMIZED, "outlier cleaning"); err != nil {
		return err
	}
	obsErrs, err := ObservationErrors(p.result.Residuals)
	if err != nil {
		return err
	}
	elbow, err := stats.ElbowValue(obsErrs, p.config.ElbowPercentile)
	if err != nil {
		return err
	}
	threshold := math.Max(elbow, p.config.OutlierFloor)

	cleaned, mapping, removed, err := RemoveOutlierObs(p.c, obsErrs, p.params, threshold)
	if err != nil {
		return err
	}
	p.c = cleaned
	p.remapKeypointIndex(mapping)
	observationsDropped.Add(float64(removed))

	p.state = STATE_OUTLIERS_CLEANED
	pipelineState.Set(float64(p.state))
	return p.DefineParameters()
}

// Save persists the adjusted projection matrices, the refined camera
// models when a fitter is configured, and flushes the reporters. A model
// refit above one pixel RMSE is reported but still persisted; acceptance
// is the caller's call.
func (p *Pipeline) Save() error {
	if err := p.requireState(STATE_OPTIMIZED, "save"); err != nil {
		return err
	}
	adjDir := filepath.Join(p.config.ResultsDirectory, "P_adj")
	if err := os.MkdirAll(adjDir, 0750); err != nil {
		return err
	}
	for i, adj := range p.adjustedPs {
		b, err := json.MarshalIndent(adj, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(adjDir, fmt.Sprintf("%s_pinhole_adj.json", p.cameraName(i)))
		if err := os.WriteFile(path, b, 0640); err != nil {
			return err
		}
	}
	log.Printf("wrote %d adjusted projection matrices to %s\n", len(p.adjustedPs), adjDir)

	if p.fitter != nil {
		if err := p.saveRefittedModels(); err != nil {
			return err
		}
	}

	for _, r := range p.reporters {
		if err := r.Flush(); err != nil {
			return err
		}
	}
	p.state = STATE_SAVED
	pipelineState.Set(float64(p.state))
	return nil
}

func (p *Pipeline) saveRefittedModels() error {
	modelDir := filepath.Join(p.config.ResultsDirectory, "model_adj")
	if err := os.MkdirAll(modelDir, 0750); err != nil {
		return err
	}
	for i, adj := range p.adjustedPs {
		model, rmse, err := p.fitter.FitFromProjection(adj, p.adjustedPts)
		if err != nil {
			return fmt.Errorf("camera %d model refit: %v", i, err)
		}
		log.Printf("image %d, refitted model RMSE = %f\n", i, rmse)
		if rmse > 1.0 {
			log.Printf("image %d refit is above one pixel, persisting anyway\n", i)
		}
		b, err := json.Marshal(model)
		if err != nil {
			return fmt.Errorf("camera %d model is not serializable: %v", i, err)
		}
		path := filepath.Join(modelDir, fmt.Sprintf("%s_model_adj.json", p.cameraName(i)))
		if err := os.WriteFile(path, b, 0640); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) cameraName(i int) string {
	name := p.scene.Cameras[i].Name
	if name == "" {
		name = fmt.Sprintf("camera_%d", i)
	}
	return name
}

// Run drives the full control loop: build tracks, optimize with the
// configured robust loss, optionally clean outliers and re-optimize
// with a plain least-squares pass, then save.
func (p *Pipeline) Run() error {
	if err := p.BuildTracks(); err != nil {
		return err
	}
	if err := p.DefineParameters(); err != nil {
		return err
	}
	if err := p.Optimize(); err != nil {
		return err
	}
	if !p.config.SkipOutlierCleaning {
		if err := p.CleanOutliers(); err != nil {
			return err
		}
		p.config.Loss = settings.LOSS_LINEAR
		if err := p.Optimize(); err != nil {
			return err
		}
	}
	return p.Save()
}
