package prism

// Change carries a recomputed snapshot through the refresh pipeline.
// It exposes both the previous and current values, allowing pipeline
// stages to make decisions based on what changed.
type Change struct {
	// Previous is the last snapshot the Core computed. On the first
	// recomputation this is the all-defaults snapshot.
	Previous Settings

	// Current is the freshly recomputed snapshot. Pipeline stages may
	// modify this value before it is cached and broadcast.
	Current Settings
}
