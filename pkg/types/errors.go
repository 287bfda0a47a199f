package types

// The error taxonomy shared across the device, group manager, and
// filesystem core. Every operation wraps one of these with its own context;
// callers match with errors.Is.
const (
	InvalidGeometryErr  ConstError = "invalid device geometry"
	OutOfRangeErr       ConstError = "id out of range"
	InvalidImageErr     ConstError = "not a valid filesystem image"
	InvalidPathErr      ConstError = "invalid path"
	PathNotFoundErr     ConstError = "path not found"
	NotADirErr          ConstError = "not a directory"
	NotAFileErr         ConstError = "not a regular file"
	FileNotFoundErr     ConstError = "file not found"
	DirNotFoundErr      ConstError = "directory not found"
	ExistsErr           ConstError = "name already exists"
	FileTooLargeErr     ConstError = "file too large"
	DirFullErr          ConstError = "directory full"
	NoSpaceErr          ConstError = "no space left in group"
	DiskFullErr         ConstError = "disk full"
	PermissionDeniedErr ConstError = "permission denied"
	NotMountedErr       ConstError = "filesystem not mounted"
	ImageLockedErr      ConstError = "image locked by another process"
)
