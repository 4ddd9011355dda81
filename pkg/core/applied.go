package core

// Arena steps folded into the Player and ConfigPlayer aggregates.
const (
	StepJoin  = "join"
	StepWin   = "win"
	StepRated = "rated"
)

// appliedWindow bounds how many recent arena steps an aggregate remembers.
const appliedWindow = 32

// Applied lists the latest arena steps counted into an aggregate as
// "<step>:<arena>" tags. A tag is written in the same save as the counters it
// covers, so a repeated step can be recognized and skipped.
type Applied []string

// StepTag names one step of one arena.
func StepTag(step, arena string) string {
	return step + ":" + arena
}

// Has reports whether tag was already applied.
func (a Applied) Has(tag string) bool {
	for _, t := range a {
		if t == tag {
			return true
		}
	}
	return false
}

// With returns a copy holding tag, keeping only the newest entries.
func (a Applied) With(tag string) Applied {
	out := make(Applied, 0, len(a)+1)
	out = append(out, a...)
	out = append(out, tag)
	if len(out) > appliedWindow {
		out = out[len(out)-appliedWindow:]
	}
	return out
}
