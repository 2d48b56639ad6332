package visualizer

// Options configures the generated diagram.
type Options struct {
	// Direction is "TB" (top to bottom) or "LR" (left to right).
	Direction string

	// Highlight marks the given state, usually a machine's current state.
	Highlight string

	// ShowGuards appends " [guarded]" to labels of guarded transitions.
	ShowGuards bool

	// ShowLabels describes each state with its display label.
	ShowLabels bool

	// Fenced wraps the diagram in a ```mermaid code fence.
	Fenced bool
}

// DefaultOptions returns top-to-bottom, guard-annotated, unfenced output.
func DefaultOptions() Options {
	return Options{
		Direction:  "TB",
		ShowGuards: true,
	}
}

func (o Options) WithDirection(direction string) Options {
	o.Direction = direction
	return o
}

func (o Options) WithHighlight(state string) Options {
	o.Highlight = state
	return o
}

func (o Options) WithShowGuards(show bool) Options {
	o.ShowGuards = show
	return o
}

func (o Options) WithShowLabels(show bool) Options {
	o.ShowLabels = show
	return o
}

func (o Options) WithFenced(fenced bool) Options {
	o.Fenced = fenced
	return o
}
