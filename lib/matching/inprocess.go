package matching

import (
	"fmt"
	"log"

	"github.com/geosfm/satba/lib/settings"
)

type matchStats struct {
	pairs   int
	matches int
	empty   int
}

// An InProcessEngine implements Engine by calling the configured
// PairMatcher synchronously in the caller's process.
type InProcessEngine struct {
	config        settings.BaSettings
	resultChannel chan<- *MatchResult

	matcher PairMatcher
	stats   matchStats
}

// NewInProcessEngine wraps a PairMatcher. The engine still needs
// Initialize before it accepts pairs.
func NewInProcessEngine(matcher PairMatcher) *InProcessEngine {
	return &InProcessEngine{matcher: matcher}
}

func (e *InProcessEngine) Initialize(config settings.BaSettings, results chan<- *MatchResult) {
	e.config = config
	e.resultChannel = results
	e.stats = matchStats{}
}

// MatchPair runs the matcher on one candidate pair and delivers the
// result. An empty match list is delivered too, so the consumer sees
// one result per submitted pair.
func (e *InProcessEngine) MatchPair(candidate MatchCandidate) error {
	if e.matcher == nil {
		return fmt.Errorf("in process engine has no pair matcher")
	}
	if e.resultChannel == nil {
		return fmt.Errorf("asked for a match but the engine is not initialized")
	}
	matches, err := e.matcher(candidate.I, candidate.J, candidate.Intersection)
	if err != nil {
		return err
	}
	e.stats.pairs++
	e.stats.matches += len(matches)
	if len(matches) == 0 {
		e.stats.empty++
	}
	e.resultChannel <- &MatchResult{I: candidate.I, J: candidate.J, Matches: matches}
	return nil
}

func (e *InProcessEngine) Shutdown() error {
	log.Printf("in process matcher shutting down, stats: %+v\n", e.stats)
	return nil
}
