// Package viz replays finished races in the terminal.
//
// [RaceModel] is a Bubble Tea program that plays two results back against
// simulated time, one lane per vehicle.
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	R     - Restart from the line
//	[]    - Scrub half a second back or forward
//	+/-   - Playback speed
//	?     - Show help
//	Q     - Quit
package viz
