package types

// OperationType defines the type of file system operation
type OperationType string

const (
	// OperationCreateSymlink creates a symbolic link
	OperationCreateSymlink OperationType = "create_symlink"

	// OperationCreateDir creates a directory
	OperationCreateDir OperationType = "create_dir"

	// OperationCopyFile copies a file
	OperationCopyFile OperationType = "copy_file"

	// OperationWriteFile writes content to a file
	OperationWriteFile OperationType = "write_file"

	// OperationDeleteFile deletes a file or symlink
	OperationDeleteFile OperationType = "delete_file"

	// OperationBackupFile moves a file aside before replacement
	OperationBackupFile OperationType = "backup_file"

	// OperationExecute runs an on-change hook command
	OperationExecute OperationType = "execute"
)

// OperationStatus defines the state of an operation
type OperationStatus string

const (
	// StatusReady means the operation is ready to be executed
	StatusReady OperationStatus = "ready"
	// StatusSkipped means the operation was skipped (e.g., idempotent)
	StatusSkipped OperationStatus = "skipped"
	// StatusConflict means the operation cannot run due to a conflict
	StatusConflict OperationStatus = "conflict"
	// StatusError means the operation resulted in an error
	StatusError OperationStatus = "error"
)

// Operation represents a low-level file system or command operation.
// The switcher plans these; the executor performs them.
type Operation struct {
	// Type is the type of operation
	Type OperationType

	// Source is the source path (for symlinks, copies, backups)
	Source string

	// Target is the target path
	Target string

	// Content is the content to write (for write operations)
	Content string

	// Mode is the file permissions (optional)
	Mode *uint32

	// Command is the shell command (for execute operations)
	Command string

	// EntryTarget is the declared target this operation serves,
	// relative to the deployment root. Used for reporting.
	EntryTarget string

	// Description is a human-readable description
	Description string

	// Status is the current state of the operation
	Status OperationStatus
}
