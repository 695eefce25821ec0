// Package services holds the client application services: key
// initialization, indexing of watched directories, and the sync engine with
// its scheduler.
package services
