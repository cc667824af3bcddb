package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *ForgeError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *ForgeError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Pipeline errors

func ChrootFailed(chroot string, cause error) *ForgeError {
	return Wrap(cause, CategoryChroot, SeverityFatal, "chroot provisioning failed").
		WithContext("chroot", chroot)
}

func SourceBuildFailed(dir string, cause error) *ForgeError {
	return Wrap(cause, CategorySource, SeverityFatal, "source package build failed").
		WithContext("dir", dir)
}

// DescriptorMissing indicates dpkg-source output contained no .dsc filename,
// or the named file does not exist. The binary build must not run after this.
func DescriptorMissing(dir string) *ForgeError {
	return New(CategorySource, SeverityFatal, "no source descriptor (.dsc) produced").
		WithContext("dir", dir)
}

func BinaryBuildFailed(dsc string, cause error) *ForgeError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "binary package build failed").
		WithContext("descriptor", dsc)
}

// Artifact errors

func ArtifactNotFound(dir string) *ForgeError {
	return New(CategoryArtifact, SeverityFatal, "no .deb artifact found").
		WithContext("dir", dir)
}

func AmbiguousArtifact(dir string, matches []string) *ForgeError {
	return New(CategoryArtifact, SeverityFatal, "multiple .deb artifacts match; refusing to guess").
		WithContext("dir", dir).
		WithContext("matches", matches)
}

// Publish errors

func PublishRejected(artifact string, status int) *ForgeError {
	return New(CategoryPublish, SeverityFatal, "repository rejected upload").
		WithContext("artifact", artifact).
		WithContext("status", status)
}

func PublishAuthFailed(status int) *ForgeError {
	return New(CategoryAuth, SeverityFatal, "repository authentication failed").
		WithContext("status", status)
}

func PublishDuplicate(artifact string) *ForgeError {
	return New(CategoryPublish, SeverityError, "package version already exists in repository").
		WithContext("artifact", artifact)
}

func PublishTransient(artifact string, cause error) *ForgeError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "transient upload failure").
		WithContext("artifact", artifact)
}

func WorkspaceError(operation string, cause error) *ForgeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}
