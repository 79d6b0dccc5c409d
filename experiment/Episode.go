package experiment

// Episode holds the rewards collected over a single completed episode.
// Only the per-step rewards are recorded; the states visited and
// actions selected are not retained, so an Episode can score returns
// but cannot reconstruct the trajectory that produced them.
type Episode struct {
	Rewards []float64
}

// Steps returns the number of environmental steps taken in the episode
func (e Episode) Steps() int {
	return len(e.Rewards)
}

// Return returns the undiscounted return of the episode
func (e Episode) Return() float64 {
	total := 0.0
	for _, reward := range e.Rewards {
		total += reward
	}
	return total
}

// DiscountedReturn returns the return of the episode discounted by
// gamma, where the reward at step t is weighted by gamma^t
func (e Episode) DiscountedReturn(gamma float64) float64 {
	total := 0.0
	discount := 1.0
	for _, reward := range e.Rewards {
		total += discount * reward
		discount *= gamma
	}
	return total
}

// MeanReturn returns the mean undiscounted return of episodes, or 0 if
// episodes is empty
func MeanReturn(episodes []Episode) float64 {
	if len(episodes) == 0 {
		return 0.0
	}

	total := 0.0
	for _, episode := range episodes {
		total += episode.Return()
	}
	return total / float64(len(episodes))
}

// MeanDiscountedReturn returns the mean return of episodes discounted
// by gamma, or 0 if episodes is empty
func MeanDiscountedReturn(episodes []Episode, gamma float64) float64 {
	if len(episodes) == 0 {
		return 0.0
	}

	total := 0.0
	for _, episode := range episodes {
		total += episode.DiscountedReturn(gamma)
	}
	return total / float64(len(episodes))
}
