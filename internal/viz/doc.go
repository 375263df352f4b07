// Package viz draws fluid snapshots in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - [Frame]: projects a snapshot onto a canvas with speed-shaded cells
//   - [Printer]: a sim.Renderer that prints frames to a writer
//   - [Model]: the Bubble Tea live view
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	S     - Single step while paused
//	+/-   - More or fewer ticks per frame
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
