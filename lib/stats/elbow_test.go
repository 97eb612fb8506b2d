package stats

import (
	"math"
	"testing"
)

func TestElbowValueEmptyInput(t *testing.T) {
	if _, err := ElbowValue(nil, 95); err == nil {
		t.Errorf("expected an error on empty input")
	}
}

func TestElbowValueConstantInput(t *testing.T) {
	values := []float64{3.5, 3.5, 3.5, 3.5}
	elbow, err := ElbowValue(values, 95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elbow != 3.5 {
		t.Errorf("constant input should return the constant, got %f", elbow)
	}
}

func TestElbowValueFindsKnee(t *testing.T) {
	// A flat bulk with a sharp tail: the knee sits where the curve
	// leaves the bulk.
	values := make([]float64, 0, 100)
	for i := 0; i < 90; i++ {
		values = append(values, 0.5+0.001*float64(i))
	}
	for i := 0; i < 10; i++ {
		values = append(values, 5.0+float64(i))
	}
	elbow, err := ElbowValue(values, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elbow > 5.0 {
		t.Errorf("elbow should be at or below the start of the tail, got %f", elbow)
	}
	if elbow < 0.5 {
		t.Errorf("elbow should not undercut the bulk, got %f", elbow)
	}
}

func TestElbowValuePercentileTruncation(t *testing.T) {
	// With the tail cut off at the 50th percentile the remaining curve
	// is constant.
	values := []float64{1, 1, 1, 1, 1, 10, 20, 30, 40, 50}
	elbow, err := ElbowValue(values, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elbow != 1 {
		t.Errorf("expected elbow 1 after truncation, got %f", elbow)
	}
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(mean-5) > 1e-12 {
		t.Errorf("expected mean 5, got %f", mean)
	}
	// Population standard deviation of this classic set is exactly 2.
	if math.Abs(std-2) > 1e-12 {
		t.Errorf("expected population stddev 2, got %f", std)
	}
	mean, std = MeanStd(nil)
	if mean != 0 || std != 0 {
		t.Errorf("empty input should give zeros, got %f, %f", mean, std)
	}
}
