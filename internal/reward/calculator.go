// Package reward computes what a viewer earns for one question.
package reward

import (
	"math"

	"overlay-quiz-service/internal/domain"
)

// Compute maps an outcome to an award. Only correct answers earn anything:
// meritos is the flat base, ondas decays linearly from the full base at the
// instant of presentation to zero when the time limit runs out.
func Compute(outcome domain.Outcome, remainingAtAnswer, timeLimitSeconds float64, cfg domain.Reward) domain.Award {
	if outcome != domain.OutcomeCorrect {
		return domain.Award{}
	}
	award := domain.Award{Meritos: cfg.BaseMeritos}
	if timeLimitSeconds <= 0 {
		return award
	}
	ondas := math.Floor(float64(cfg.BaseOndas) * remainingAtAnswer / timeLimitSeconds)
	switch {
	case math.IsNaN(ondas) || ondas < 0:
		ondas = 0
	case ondas > float64(cfg.BaseOndas):
		ondas = float64(cfg.BaseOndas)
	}
	award.Ondas = int(ondas)
	return award
}
