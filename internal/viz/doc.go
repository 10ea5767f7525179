// Package viz is the terminal renderer.
//
// Each terminal cell shows two vertically stacked samples of the
// distance-field blend using the upper half block, so a w×h cell grid
// covers a w×2h sample grid. In point mode the trail and particles are
// plotted on a Braille [Canvas] instead.
//
// # Mouse and keys
//
//	Motion        - moves the pointer
//	Left/Middle   - press (middle drains the trail twice as fast)
//	Right         - press and toggle shaded/point mode
//	Space         - pause
//	R             - reset systems
//	T             - cycle HUD themes
//	?             - help
//	Q / Ctrl+C    - quit
package viz
