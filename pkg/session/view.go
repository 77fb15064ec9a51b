package session

import "github.com/aretw0/aquarium/pkg/view"

// View is the surface a session drives. The connect prompt and the main
// application are mutually exclusive: ShowConnect hides the main surface and
// ShowMain hides the prompt.
type View interface {
	ShowConnect()
	ShowMain(room string)
	// Render is called on the session goroutine after every cache
	// replacement or local mutation.
	Render(frame view.Frame)
}
