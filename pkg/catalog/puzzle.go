package catalog

// Item is a collectible inventory entry.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Option is one selectable answer of a puzzle.
type Option struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Hint  string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Reward is granted when a puzzle is solved.
type Reward struct {
	Item  string `json:"item,omitempty" yaml:"item,omitempty"`
	Flag  string `json:"flag,omitempty" yaml:"flag,omitempty"`
	Value *bool  `json:"value,omitempty" yaml:"value,omitempty"` // flag value, defaults to true
	Text  string `json:"text,omitempty" yaml:"text,omitempty"`
}

// FlagValue is the value the reward flag is set to.
func (r *Reward) FlagValue() bool {
	if r == nil || r.Value == nil {
		return true
	}
	return *r.Value
}

// Puzzle is a multiple-choice interaction with exactly one correct option.
type Puzzle struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Mechanic    string   `json:"mechanic,omitempty" yaml:"mechanic,omitempty"`
	Options     []Option `json:"options" yaml:"options"`
	Solution    string   `json:"solution" yaml:"solution"`
	Reward      *Reward  `json:"reward,omitempty" yaml:"reward,omitempty"`
	SuccessText string   `json:"successText,omitempty" yaml:"successText,omitempty"`
	FailureText string   `json:"failureText,omitempty" yaml:"failureText,omitempty"`
	Requires    []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Option returns the option with the given id.
func (p *Puzzle) Option(id string) (Option, bool) {
	for _, o := range p.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
