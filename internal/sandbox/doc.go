// Package sandbox implements the message protocol between a preview host and
// an isolated runtime that compiles previews on demand.
//
// The runtime boots, announces itself with "ready" and builds nothing until
// the host answers with "init" carrying the preview configuration. Results
// flow back as "built" or "error". All data crosses a Channel as encoded
// messages; the runtime never touches the host's file system.
//
//	host                      runtime
//	 |  <------- ready -------  |
//	 |  -------- init ------->  |   (config fetched out of band)
//	 |  <------- built -------  |
//	 |  -------- update ----->  |   (hot reload)
//	 |  <------- built -------  |
package sandbox
