package pipeline

// Mode selects what a run produces after classification.
type Mode string

const (
	// CycleCount associates every item with a location.
	CycleCount Mode = "cycle-count"
	// Xray enriches every item with its sub-item contents.
	Xray Mode = "xray"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == CycleCount || m == Xray
}

// ParseMode converts a configuration or request value into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", invalidMode(m)
	}
	return m, nil
}

// Phase is the controller's position in a run.
type Phase string

const (
	Idle        Phase = "idle"
	Detecting   Phase = "detecting"
	Classifying Phase = "classifying"
	Associating Phase = "associating"
	Enriching   Phase = "enriching"
	Ready       Phase = "ready"
	Failed      Phase = "failed"
)

// Busy reports whether a run is in progress while in phase p.
func (p Phase) Busy() bool {
	switch p {
	case Detecting, Classifying, Associating, Enriching:
		return true
	default:
		return false
	}
}

// State is a snapshot of the controller. Cursor is meaningful only while
// Phase is Enriching.
type State struct {
	Phase  Phase `json:"phase"`
	Cursor int   `json:"cursor"`
	Busy   bool  `json:"busy"`
	Mode   Mode  `json:"mode"`
}
