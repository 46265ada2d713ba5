// Package business provides the business boundary for bizpulse's daily health
// analysis. It defines the data model (Input, Metrics, Output, State), the three
// pure pipeline stages, the Engine (single entry point wrapping the stages in a
// pipeline.Runner) and the Service (ids, notification and narration).
package business
