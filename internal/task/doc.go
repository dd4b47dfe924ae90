// Package task runs the background sync sweep: a periodic pass over the
// durable sync queue that replays failed remote mirror operations. The sweep
// is the only consumer of the queue; the foreground never waits on it.
package task
