package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	messages "github.com/geosfm/satba/lib/kafka"
	"github.com/geosfm/satba/lib/matching"
	"github.com/geosfm/satba/lib/tracks"
	kafka "github.com/segmentio/kafka-go"
)

func decodeTaskMessage(msg kafka.Message, task *messages.MatchTask) error {
	return json.Unmarshal(msg.Value, task)
}

func encodeResultMessage(result matching.MatchResult) ([]byte, error) {
	return json.Marshal(result)
}

// loadPairMatches reads the correspondences of one camera pair from the
// matches directory. The files are produced by the external descriptor
// matcher, one per pair.
func loadPairMatches(dir string, i int, j int) ([]tracks.PairwiseMatch, error) {
	path := filepath.Join(dir, fmt.Sprintf("matches_%d_%d.json", i, j))
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No correspondences for this pair is an empty result, not an error.
			return []tracks.PairwiseMatch{}, nil
		}
		return nil, err
	}
	var matches []tracks.PairwiseMatch
	if err := json.Unmarshal(b, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func main() {
	var kafkaURL string
	var matchesDirectory string
	flag.StringVar(&kafkaURL, "kafkaURL", "", "The URL for the kafka broker.")
	flag.StringVar(&matchesDirectory, "matchesDirectory", ".",
		"Directory holding the per-pair match files from the descriptor matcher.")
	flag.Parse()

	kafkaTaskReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{kafkaURL},
		GroupID: "1",
		Topic:   "satba_match_tasks",
	})
	defer kafkaTaskReader.Close()

	kafkaResultsWriter := &kafka.Writer{
		Addr:     kafka.TCP(kafkaURL),
		Topic:    "satba_match_results",
		Balancer: &kafka.Hash{},
	}
	defer kafkaResultsWriter.Close()

	log.Println("match worker waiting for pairs to match")
	for {
		msg, err := kafkaTaskReader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("failed to read task message: %v\n", err)
			continue
		}
		task := &messages.MatchTask{}
		log.Printf("received task message with key %s, partition %d\n", string(msg.Key[:]), msg.Partition)
		err = decodeTaskMessage(msg, task)
		if err != nil {
			log.Printf("failed to decode task message: %v\n", err)
			continue
		}

		matches, err := loadPairMatches(matchesDirectory, task.I, task.J)
		if err != nil {
			log.Printf("failed to load matches for pair (%d, %d): %v\n", task.I, task.J, err)
			continue
		}
		result := matching.MatchResult{I: task.I, J: task.J, Matches: matches}
		msgBytes, err := encodeResultMessage(result)
		if err != nil {
			log.Printf("failed to encode result for pair (%d, %d): %v\n", task.I, task.J, err)
			continue
		}
		err = kafkaResultsWriter.WriteMessages(context.Background(), kafka.Message{
			Key:   msg.Key,
			Value: msgBytes,
		})
		if err != nil {
			log.Printf("failed to send result for pair (%d, %d): %v\n", task.I, task.J, err)
		} else {
			log.Printf("sent %d matches for pair (%d, %d)\n", len(matches), task.I, task.J)
		}
	}
}
