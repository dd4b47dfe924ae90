// Package remote contains the HTTP clients for the two external
// collaborators of the scheduling core: the remote mirror store that
// review logs and card state are replicated to, and the reference
// resolver that turns a free-text citation into canonical verse text.
//
// Both collaborators are consumed through interfaces so services and
// tests can substitute fakes; the HTTP implementations live here.
package remote
