package fileops

import (
	"go.uber.org/multierr"
)

// OrganizeResult reports the outcome of OrganizeByExtension
type OrganizeResult struct {
	Organized int      `json:"organized" yaml:"organized"`
	Errors    int      `json:"errors" yaml:"errors"`
	Details   []string `json:"details,omitempty" yaml:"details,omitempty"`
	DryRun    bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`

	errs error
}

// Err returns all per-file errors combined, or nil
func (r OrganizeResult) Err() error { return r.errs }

func (r *OrganizeResult) fail(err error) {
	r.Errors++
	r.errs = multierr.Append(r.errs, err)
}

// CleanupDirsResult reports the outcome of CleanupEmptyDirs
type CleanupDirsResult struct {
	Removed int      `json:"removed" yaml:"removed"`
	Errors  int      `json:"errors" yaml:"errors"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
	DryRun  bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`

	errs error
}

// Err returns all per-directory errors combined, or nil
func (r CleanupDirsResult) Err() error { return r.errs }

func (r *CleanupDirsResult) fail(err error) {
	r.Errors++
	r.errs = multierr.Append(r.errs, err)
}

// CleanupFilesResult reports the outcome of CleanupOldFiles
type CleanupFilesResult struct {
	Deleted    int      `json:"deleted" yaml:"deleted"`
	Errors     int      `json:"errors" yaml:"errors"`
	FreedBytes int64    `json:"freedBytes" yaml:"freedBytes"`
	Details    []string `json:"details,omitempty" yaml:"details,omitempty"`
	DryRun     bool     `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`

	errs error
}

// Err returns all per-file errors combined, or nil
func (r CleanupFilesResult) Err() error { return r.errs }

func (r *CleanupFilesResult) fail(err error) {
	r.Errors++
	r.errs = multierr.Append(r.errs, err)
}

// PermissionsResult reports the outcome of ChangePermissions
type PermissionsResult struct {
	Changed int    `json:"changed" yaml:"changed"`
	Errors  int    `json:"errors" yaml:"errors"`
	Mode    string `json:"mode" yaml:"mode"`

	errs error
}

// Err returns all per-path errors combined, or nil
func (r PermissionsResult) Err() error { return r.errs }

func (r *PermissionsResult) fail(err error) {
	r.Errors++
	r.errs = multierr.Append(r.errs, err)
}

// LargeFile is a file found above the size threshold
type LargeFile struct {
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
}
