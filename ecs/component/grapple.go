package component

import "github.com/milk9111/grapplehook/grapple"

// Grappler marks an actor that can grapple. State mirrors the controller's
// observable snapshot for cosmetic consumers.
type Grappler struct {
	State grapple.Snapshot
	// LastError is the reason the most recent begin was rejected.
	LastError string
}

var GrapplerComponent = NewComponent[Grappler]()
