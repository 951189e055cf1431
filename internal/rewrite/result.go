package rewrite

import (
	"github.com/kfstorm/sonarr-metadata-rewrite-sub000/internal/tmdb"
)

// Result is the sole observable outcome of one pipeline invocation
// besides the filesystem side effect. Pipelines never panic or leak
// errors past their boundary; failures are reported here.
type Result struct {
	Success       bool
	Path          string
	Message       string
	Ref           *tmdb.EntityRef
	BackupCreated bool
	FileModified  bool
	// Language ultimately applied, or "original" when the file was
	// reverted or filled from pre-rewrite content.
	Language string
}

func failure(path, message string) Result {
	return Result{Path: path, Message: message}
}
