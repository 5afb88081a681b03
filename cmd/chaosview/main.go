// Command chaosview is an interactive fractal viewer.
//
// The mouse wheel zooms around the cursor and dragging with the left button pans. Keys:
//
//	N      next fractal
//	F5     recompile the current kernel from source
//	P      save a snapshot
//	R      reset the view
//	Space  restart refinement
//	A      toggle automatic quality
//	V      toggle the adaptive supersampling visualisation
//	- / =  halve / double the iteration count
//	D      log the right bottom pixel
//	Esc    quit
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chaosview:", err)
		os.Exit(1)
	}
}
