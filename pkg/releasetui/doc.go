// Package releasetui renders release pipeline progress in the terminal.
//
// Models subscribe to [github.com/MacroPower/shipper/pkg/releasecmd] events
// and display per-stage progress with a spinner and progress bar. Log output
// is interleaved above the live view.
package releasetui
