// Package cli implements the photovault client command line.
//
// Commands:
//
//	login       store the account id, name and API token on this device
//	keys init   create or recover the user's key pair
//	dirs add    watch a directory for new images
//	dirs list   print watched directories
//	index       scan watched directories and index new images
//	sync        index, then download and upload; --watch keeps syncing
//	status      count indexed files per sync status
//	get         download and decrypt an original or a thumbnail
//	reset       return interrupted uploads to New
//	version     print build information
//
// All commands share the persistent flags bound by config.(*Config).BindFlags.
package cli
