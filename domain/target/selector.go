package target

// Mode chooses the selection policy.
type Mode int

const (
	// Nearest picks the object with the smallest distance.
	Nearest Mode = iota
	// LargestPersonPreferred picks the largest person, else the largest object.
	LargestPersonPreferred
)

func (m Mode) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case LargestPersonPreferred:
		return "largest"
	default:
		return "unknown"
	}
}

// ModeFor maps the following flag to a selection mode: while following the closest
// object is chased, otherwise the most prominent one is shown.
func ModeFor(following bool) Mode {
	if following {
		return Nearest
	}
	return LargestPersonPreferred
}

// Select returns the chosen object, or false when nothing survives filtering.
// ignored is read once; pass IgnoreSet.Snapshot() so a concurrent toggle cannot
// change membership mid-pass. Objects with invalid boxes are never selected, and
// Nearest skips objects without a usable distance. Ties keep the first object in
// input order.
func Select(objects []DetectedObject, ignored map[ClassID]struct{}, mode Mode) (DetectedObject, bool) {
	var (
		best       DetectedObject
		found      bool
		bestPerson DetectedObject
		havePerson bool
	)
	for _, o := range objects {
		if !o.Box.Valid() {
			continue
		}
		if _, skip := ignored[o.Class]; skip && o.Class.Known() {
			continue
		}
		switch mode {
		case Nearest:
			if !o.HasDistance() {
				continue
			}
			if !found || o.DistanceM < best.DistanceM {
				best, found = o, true
			}
		default:
			if !found || o.Box.Area() > best.Box.Area() {
				best, found = o, true
			}
			if o.Class == ClassPerson && (!havePerson || o.Box.Area() > bestPerson.Box.Area()) {
				bestPerson, havePerson = o, true
			}
		}
	}
	if havePerson {
		return bestPerson, true
	}
	return best, found
}

// Annotate flags every object whose box equals the selected box. When nothing was
// selected all flags are false.
func Annotate(objects []DetectedObject, selected DetectedObject, ok bool) []Annotated {
	out := make([]Annotated, len(objects))
	for i, o := range objects {
		out[i] = Annotated{DetectedObject: o, IsTarget: ok && o.Box == selected.Box}
	}
	return out
}
