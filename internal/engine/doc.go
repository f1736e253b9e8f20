// Package engine implements the engine state machine shared by the render,
// GUI and IO engines.
//
// ARCHITECTURE:
//
// An engine is a single goroutine that exclusively owns one subsystem's
// state. It is fed by one channel receiver and publishes through one
// observer.Subject:
//
//	Constructed --Run--> Running --(closed | Halt | fatal | ctx)--> Stopped
//
// Loop body:
//  1. Recv the next command (the only suspension point of the loop)
//  2. Handler.Apply mutates the engine's state and may emit events
//  3. every emitted event is published synchronously through the Subject
//
// Collaborators called from Apply may block too (presenting a frame, for
// example); those calls are documented on the collaborator interfaces.
//
// STOPPING:
//
// An engine stops when its channel is closed and drained (clean), when the
// handler returns Halt (clean), when the handler fails or panics (FatalError)
// or when the context is cancelled. On the way out it drops its receiver, so
// later sends fail with channel.ErrChannelClosed, and closes its Subject, so
// the channels it feeds lose a sender. Shutdown therefore propagates as
// channel closure.
//
// ISOLATION:
//
// One engine stopping, even fatally, never stops another. Group collects every
// engine's result; restart policy is left to the caller.
package engine
