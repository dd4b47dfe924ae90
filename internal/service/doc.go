// Package service orchestrates the application's use cases on top of the
// domain and store layers: review sessions, the local-first commit pipeline
// with its best-effort remote mirror, verse intake, and card management.
//
// The local store is the source of truth. Every operation persists locally
// first; remote mirroring is strictly best-effort and falls back to the
// durable sync queue, so nothing in this package ever blocks on the network
// for local availability.
package service
