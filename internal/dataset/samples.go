package dataset

import (
	"sort"

	"github.com/satindergrewal/sonigraph/internal/apperr"
)

// Sample is a bundled dataset.
type Sample struct {
	Key         string
	Name        string
	Description string
	Values      []float64
}

// Samples maps sample keys to the bundled datasets.
var Samples = map[string]*Sample{
	"stockPrices": {
		Key:         "stockPrices",
		Name:        "Stock Price Simulation",
		Description: "Simulated stock price movements over 100 time periods",
		Values: []float64{
			100, 102.5, 101.8, 105.2, 103.7, 108.1, 106.5, 111.3, 109.8, 114.2, 112.1, 115.8,
			113.4, 118.7, 116.2, 121.5, 119.3, 124.1, 122.8, 127.4, 125.6, 130.2, 128.9, 133.5,
			131.7, 136.8, 134.2, 139.1, 137.5, 142.3, 140.8, 145.6, 143.2, 148.9, 146.7, 151.4,
			149.8, 154.2, 152.6, 157.8, 155.1, 160.5, 158.9, 163.7, 161.4, 166.8, 164.5, 169.2,
			167.6, 172.1, 170.3, 175.7, 173.8, 178.4, 176.9, 181.6, 179.2, 184.5, 182.7, 187.9,
			185.4, 190.8, 188.6, 193.2, 191.7, 196.5, 194.1, 199.8, 197.3, 202.6, 200.9, 205.4,
			203.8, 208.1, 206.5, 211.7, 209.2, 214.8, 212.4, 217.6, 215.9, 220.5, 218.7, 223.8,
			221.2, 226.9, 224.5, 229.7, 227.8, 232.4, 230.6, 235.9, 233.1, 238.5, 236.8, 241.2,
			239.4, 244.7, 242.1, 247.8,
		},
	},
	"temperature": {
		Key:         "temperature",
		Name:        "Daily Temperature",
		Description: "Temperature variations throughout a 24-hour period",
		Values: []float64{
			58, 57, 56, 55, 54, 53, 54, 56, 59, 62, 66, 70, 74, 77, 80, 82, 84, 85, 84, 82, 79,
			75, 71, 67, 64, 61, 59,
		},
	},
	"sineWave": {
		Key:         "sineWave",
		Name:        "Sine Wave",
		Description: "Mathematical sine wave pattern",
		Values: []float64{
			0, 0.31, 0.59, 0.81, 0.95, 1.00, 0.95, 0.81, 0.59, 0.31, 0.00, -0.31, -0.59, -0.81,
			-0.95, -1.00, -0.95, -0.81, -0.59, -0.31, 0.00, 0.31, 0.59, 0.81, 0.95, 1.00, 0.95,
			0.81, 0.59, 0.31, 0.00, -0.31, -0.59, -0.81, -0.95, -1.00, -0.95, -0.81, -0.59, -0.31,
		},
	},
	"randomWalk": {
		Key:         "randomWalk",
		Name:        "Random Walk",
		Description: "Brownian motion-style random data",
		Values: []float64{
			50, 51.2, 49.8, 52.1, 50.7, 53.4, 51.9, 54.8, 53.2, 56.1, 54.5, 57.3, 55.8, 58.9,
			57.2, 60.1, 58.7, 61.4, 59.8, 62.7, 61.1, 63.9, 62.4, 65.2, 63.7, 66.8, 65.1, 68.3,
			66.6, 69.7, 68.2, 71.1, 69.5, 72.8, 71.2, 74.3, 72.7, 75.9, 74.4, 77.2, 75.6, 78.8,
			77.1, 80.4, 78.9, 81.7, 80.2, 83.1, 81.6, 84.5,
		},
	},
	"heartbeat": {
		Key:         "heartbeat",
		Name:        "Heartbeat Pattern",
		Description: "Simulated ECG-style rhythmic pattern",
		Values: []float64{
			0.1, 0.1, 0.2, 0.8, 0.1, -0.3, 0.1, 0.1, 0.1, 0.1, 0.1, 0.2, 0.8, 0.1, -0.3, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.2, 0.8, 0.1, -0.3, 0.1, 0.1, 0.1, 0.1, 0.1, 0.2, 0.8, 0.1, -0.3, 0.1,
			0.1, 0.1, 0.1, 0.1, 0.2, 0.8, 0.1, -0.3, 0.1, 0.1, 0.1, 0.1, 0.1, 0.2, 0.8, 0.1,
		},
	},
}

// SampleKeys returns the sample keys in sorted order.
func SampleKeys() []string {
	keys := make([]string, 0, len(Samples))
	for k := range Samples {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadSample builds a Dataset from a bundled sample.
func LoadSample(key string) (*Dataset, error) {
	s, ok := Samples[key]
	if !ok {
		return nil, apperr.Inputf("Unknown sample dataset %q", key)
	}
	return New(s.Name, s.Description, SourceSample, s.Values)
}
