package config

import (
	"fmt"

	"github.com/gridcal/pricefit/core/model"
)

// PairHypothesis is an initial threshold guess.
type PairHypothesis struct {
	Price0   float64 `json:"price0"`
	Price100 float64 `json:"price100"`
}

// Pair converts the hypothesis to a model pair.
func (p PairHypothesis) Pair() model.ThresholdPair {
	return model.ThresholdPair{Price0: p.Price0, Price100: p.Price100}
}

// HypothesisConfig holds the fallback initial guesses used when a dataset
// entry carries none of its own.
type HypothesisConfig struct {
	Producer PairHypothesis `json:"producer"`
	Consumer PairHypothesis `json:"consumer"`
}

// SetDefaults applies generic defaults spanning typical spot-price ranges.
func (c *HypothesisConfig) SetDefaults() {
	if c.Producer == (PairHypothesis{}) {
		c.Producer = PairHypothesis{Price0: 20, Price100: 90}
	}
	if c.Consumer == (PairHypothesis{}) {
		c.Consumer = PairHypothesis{Price0: 15, Price100: -15}
	}
}

// Validate enforces the ordering conventions of the hypotheses: producer
// price0 below price100, consumer price0 above price100, and the consumer
// zero-point at or below the producer zero-point so a coupled storage seed
// is feasible.
func (c HypothesisConfig) Validate() error {
	if c.Producer.Price0 > c.Producer.Price100 {
		return fmt.Errorf("producer: price0 (%g) > price100 (%g)", c.Producer.Price0, c.Producer.Price100)
	}
	if c.Consumer.Price0 < c.Consumer.Price100 {
		return fmt.Errorf("consumer: price0 (%g) < price100 (%g)", c.Consumer.Price0, c.Consumer.Price100)
	}
	if c.Consumer.Price0 > c.Producer.Price0 {
		return fmt.Errorf("consumer price0 (%g) > producer price0 (%g)", c.Consumer.Price0, c.Producer.Price0)
	}
	return nil
}
