package main

// User-facing message constants for the CLI.
const (
	MsgRootShort = "A declarative, generation-based file deployer"
	MsgRootLong  = `genlink deploys a declared set of files into a target tree through
symlinks into immutable, numbered generation images. Every change is a
transition to a new generation: collisions are detected before anything
is touched, removed entries are cleaned up, and on-change hooks run
once per changed file.`

	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun   = "Preview the transition without touching the live tree (a generation image is still built)"
	MsgFlagForce    = "Exempt all targets from collision checking"
	MsgFlagRoot     = "Deployment root directory"
	MsgFlagManifest = "Manifest path (default from configuration)"
	MsgFlagFormat   = "Output format: auto, term, text, xml"

	MsgSwitchShort = "Build a generation from the manifest and deploy it"
	MsgBuildShort  = "Build a generation image without deploying it"
	MsgCheckShort  = "Run the collision pre-flight without deploying"
	MsgGensShort   = "List known generations"
)
