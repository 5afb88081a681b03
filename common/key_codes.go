package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA     = 65  // A key (ASCII), toggles automatic quality
	KeyD     = 68  // D key (ASCII), logs the right-bottom pixel
	KeyN     = 78  // N key (ASCII), switches to the next fractal
	KeyP     = 80  // P key (ASCII), saves a snapshot
	KeyR     = 82  // R key (ASCII), resets the view
	KeyV     = 86  // V key (ASCII), toggles adaptive supersampling visualisation
	KeySpace = 32  // Spacebar (ASCII), forces a refinement restart
	KeyEsc   = 256 // Escape key (GLFW)
	KeyF5    = 294 // F5 key (GLFW), reloads the current kernel from source

	KeyMinus = 45 // - key (ASCII), halves max iterations
	KeyEqual = 61 // = key (ASCII), doubles max iterations
)
