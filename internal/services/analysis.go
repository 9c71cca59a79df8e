package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"nutrition-tracker-backend/internal/models"
)

// DefaultAnalysisDelay is how long the simulator takes to "analyze" a photo
const DefaultAnalysisDelay = 2 * time.Second

// Analyzer turns a meal photo reference into a candidate entry
type Analyzer interface {
	Analyze(ctx context.Context, imageRef string) (models.NewFoodEntry, error)
}

// AnalysisSimulator stands in for a recognition service: after a fixed
// delay it returns random nutrition values from fixed ranges.
type AnalysisSimulator struct {
	delay time.Duration
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewAnalysisSimulator creates a simulator. A nil rng uses the global source.
func NewAnalysisSimulator(delay time.Duration, rng *rand.Rand) *AnalysisSimulator {
	return &AnalysisSimulator{
		delay: delay,
		now:   time.Now,
		rng:   rng,
	}
}

// Analyze waits for the configured delay and returns a candidate entry
func (a *AnalysisSimulator) Analyze(ctx context.Context, imageRef string) (models.NewFoodEntry, error) {
	if imageRef == "" {
		return models.NewFoodEntry{}, fmt.Errorf("image reference is required")
	}

	timer := time.NewTimer(a.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return models.NewFoodEntry{}, fmt.Errorf("analysis cancelled: %w", ctx.Err())
	case <-timer.C:
	}

	return models.NewFoodEntry{
		Name:      "Analyzed Meal",
		Image:     imageRef,
		Nutrition: a.nutrition(),
		Timestamp: a.now(),
	}, nil
}

func (a *AnalysisSimulator) nutrition() models.NutritionData {
	a.mu.Lock()
	defer a.mu.Unlock()

	return models.NutritionData{
		Calories:   a.between(200, 600),
		Protein:    a.between(15, 45),
		Vegetables: a.between(50, 150),
		Carbs:      a.between(20, 70),
		Fiber:      a.between(3, 13),
		Sugar:      a.between(5, 20),
	}
}

// between returns a uniform integer in [lo, hi)
func (a *AnalysisSimulator) between(lo, hi int) int {
	if a.rng != nil {
		return lo + a.rng.IntN(hi-lo)
	}
	return lo + rand.IntN(hi-lo)
}
