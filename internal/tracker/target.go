package tracker

import "math"

// selectTarget returns the nearest live hostile. Ties keep the first actor in
// enumeration order.
func (b *Bot) selectTarget(actors []Actor) (Actor, bool) {
	origin := b.deps.Body.Position()
	best := Actor{}
	bestDist := math.Inf(1)
	found := false
	for _, actor := range actors {
		if actor.ID == b.id {
			continue
		}
		if b.deps.Identity.IsFriendly(b.id, actor.ID) {
			continue
		}
		if b.deps.Identity.CurrentHealth(actor.ID) <= 0 {
			continue
		}
		dist := origin.Dist(actor.Position)
		if dist < bestDist {
			best = actor
			bestDist = dist
			found = true
		}
	}
	return best, found
}
