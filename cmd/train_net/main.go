// Command train_net trains the feed-forward network to predict the next
// night's sleep duration from the current day's biometrics and saves the
// trained snapshot.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"ringpulse/health"
	"ringpulse/neural"
)

func main() {
	recordsPath := flag.String("records", "", "path to records JSON")
	modelPath := flag.String("model_path", "./models/sleepnet.json", "model output path")
	hidden := flag.Int("hidden", 8, "hidden layer width")
	epochs := flag.Int("epochs", 500, "training epochs")
	learningRate := flag.Float64("lr", 0.1, "learning rate")
	testRatio := flag.Float64("test_ratio", 0.2, "test ratio")
	seed := flag.Int64("seed", 1, "weight init seed")
	flag.Parse()

	if *recordsPath == "" {
		log.Fatal("records path is required")
	}

	inputs, targets, err := buildTrainingData(*recordsPath)
	if err != nil {
		log.Fatalf("failed to build training data: %v", err)
	}
	trainX, trainY, testX, testY := splitDataset(inputs, targets, *testRatio)
	log.Printf("training on %d samples, testing on %d", len(trainX), len(testX))

	net, err := neural.NewNetwork(neural.Config{
		InputSize:    len(trainX[0]),
		HiddenLayers: []int{*hidden},
		OutputSize:   1,
		LearningRate: *learningRate,
		Seed:         *seed,
	})
	if err != nil {
		log.Fatalf("failed to build network: %v", err)
	}

	losses, err := net.Train(trainX, trainY, *epochs)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	log.Printf("loss: first=%.5f last=%.5f", losses[0], losses[len(losses)-1])

	if len(testX) > 0 {
		mse, err := evaluate(net, testX, testY)
		if err != nil {
			log.Fatalf("evaluation failed: %v", err)
		}
		log.Printf("test mse=%.5f", mse)
	}

	if err := os.MkdirAll(filepath.Dir(*modelPath), 0o755); err != nil {
		log.Fatalf("failed to create model dir: %v", err)
	}
	if err := net.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}
	fmt.Printf("model saved to %s\n", *modelPath)
}

// buildTrainingData pairs each day's normalized feature vector with the next
// night's sleep duration scaled into [0,1].
func buildTrainingData(path string) ([][]float64, [][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var records []health.DailyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	features, err := health.ExtractFeatures(records)
	if err != nil {
		return nil, nil, err
	}
	var norm health.Normalizer
	vectors, err := norm.FitTransform(features)
	if err != nil {
		return nil, nil, err
	}

	// Feature rows start once a full rolling window exists.
	offset := len(records) - len(features)
	var inputs, targets [][]float64
	for i := 0; i < len(vectors)-1; i++ {
		next := records[offset+i+1]
		inputs = append(inputs, vectors[i])
		targets = append(targets, []float64{next.SleepHours / 12.0})
	}
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("not enough records to form training pairs")
	}
	return inputs, targets, nil
}

func splitDataset(inputs, targets [][]float64, testRatio float64) (trainX, trainY, testX, testY [][]float64) {
	if testRatio <= 0 || testRatio >= 1 {
		return inputs, targets, nil, nil
	}
	split := int(float64(len(inputs)) * (1 - testRatio))
	if split < 1 {
		split = 1
	}
	return inputs[:split], targets[:split], inputs[split:], targets[split:]
}

func evaluate(net *neural.Network, testX, testY [][]float64) (float64, error) {
	total := 0.0
	for i, input := range testX {
		output, err := net.Predict(input)
		if err != nil {
			return 0, err
		}
		diff := output[0] - testY[i][0]
		total += diff * diff
	}
	return total / float64(len(testX)), nil
}
