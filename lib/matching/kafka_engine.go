package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	messages "github.com/geosfm/satba/lib/kafka"
	"github.com/geosfm/satba/lib/settings"
	kafka "github.com/segmentio/kafka-go"
)

// A KafkaEngine sends match tasks as kafka messages for workers to pick
// up and process. It then listens for the results.
type KafkaEngine struct {
	config        settings.BaSettings
	resultChannel chan<- *MatchResult

	taskWriter   *kafka.Writer
	resultReader *kafka.Reader
	runnerCtx    context.Context
	runnerCancel context.CancelFunc
	msgCounter   int
}

func (k *KafkaEngine) Initialize(config settings.BaSettings, results chan<- *MatchResult) {
	k.config = config
	k.resultChannel = results
	k.msgCounter = 0
	k.taskWriter = &kafka.Writer{
		Addr:     kafka.TCP(config.KafkaURL),
		Topic:    "satba_match_tasks",
		Balancer: &kafka.LeastBytes{},
	}
	k.resultReader = kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{config.KafkaURL},
		GroupID: "2",
		Topic:   "satba_match_results",
	})

	k.runnerCtx, k.runnerCancel = context.WithCancel(context.Background())
	go func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				log.Printf("result runner stopped\n")
				return
			default:
				msg, err := k.resultReader.ReadMessage(ctx)
				if err != nil {
					log.Printf("error getting match result message: %v\n", err)
					continue
				}
				result := &MatchResult{}
				err = k.decodeResultMessage(msg, result)
				if err != nil {
					log.Printf("error decoding match result message: %v\n", err)
					continue
				}
				log.Printf("pair (%d, %d) matched with %d correspondences\n",
					result.I, result.J, len(result.Matches))
				k.resultChannel <- result
			}
		}
	}(k.runnerCtx)
	log.Printf("kafka matching engine initialized with url %s\n", config.KafkaURL)
}

// MatchPair encodes one candidate as a task message. The result arrives
// asynchronously on the results channel once a worker has processed it.
func (k *KafkaEngine) MatchPair(candidate MatchCandidate) error {
	if k.taskWriter == nil {
		return fmt.Errorf("asked for a match but the engine is not initialized")
	}
	key := fmt.Sprintf("key-%d-%d-%d", candidate.I, candidate.J, k.msgCounter)
	msgBytes, err := json.Marshal(messages.MatchTask{
		I:            candidate.I,
		J:            candidate.J,
		Intersection: candidate.Intersection,
		Config:       k.config,
	})
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: msgBytes,
	}
	k.msgCounter++
	err = k.taskWriter.WriteMessages(context.Background(), msg)
	if err != nil {
		log.Printf("error sending match task: %v\n", err)
		return err
	}
	return nil
}

func (k *KafkaEngine) Shutdown() error {
	log.Println("kafka matching engine shutting down")
	if k.taskWriter != nil {
		k.taskWriter.Close()
	}
	if k.resultReader != nil {
		k.resultReader.Close()
	}
	if k.runnerCancel != nil {
		k.runnerCancel()
	}
	return nil
}

func (k *KafkaEngine) decodeResultMessage(msg kafka.Message, res *MatchResult) error {
	return json.Unmarshal(msg.Value, res)
}
