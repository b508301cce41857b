// Package viz renders run results for the terminal.
//
//   - [Panel] and [KeyValues]: lipgloss summary panels
//   - [ProfilePlot]: asciigraph line plot of a radial profile
//   - [SliceMap]: Braille map of the cells of a grid slice above a level
//   - [ProgressBar] and [Sparkline]: compact inline gauges
package viz
