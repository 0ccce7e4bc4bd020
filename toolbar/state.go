package toolbar

// State is the visual state of the primary action.
type State int

const (
	StateIdle State = iota
	StateCopying
	StateCopied
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCopying:
		return "copying"
	case StateCopied:
		return "copied"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Labels holds the user-visible toolbar strings.
type Labels struct {
	Copy    string `yaml:"copy" json:"copy"`
	Copying string `yaml:"copying" json:"copying"`
	Copied  string `yaml:"copied" json:"copied"`
	Error   string `yaml:"error" json:"error"`
	Repick  string `yaml:"repick" json:"repick"`
	Cancel  string `yaml:"cancel" json:"cancel"`
}

// DefaultLabels returns the English strings.
func DefaultLabels() Labels {
	return Labels{
		Copy:    "Copy as Markdown",
		Copying: "Copying...",
		Copied:  "Copied!",
		Error:   "Error!",
		Repick:  "Repick",
		Cancel:  "Cancel",
	}
}

// WithDefaults fills empty labels from DefaultLabels.
func (l Labels) WithDefaults() Labels {
	d := DefaultLabels()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&l.Copy, d.Copy)
	fill(&l.Copying, d.Copying)
	fill(&l.Copied, d.Copied)
	fill(&l.Error, d.Error)
	fill(&l.Repick, d.Repick)
	fill(&l.Cancel, d.Cancel)
	return l
}

// For returns the primary-action label of s.
func (l Labels) For(s State) string {
	switch s {
	case StateCopying:
		return l.Copying
	case StateCopied:
		return l.Copied
	case StateError:
		return l.Error
	default:
		return l.Copy
	}
}
