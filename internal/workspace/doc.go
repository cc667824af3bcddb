// Package workspace manages scratch directories for package builds,
// supporting both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g.,
// debforge-build-20260827-122336) suitable for one-shot CI builds, cleaning
// up completely after use.
//
// Persistent mode uses a fixed directory path that persists across builds,
// which keeps sbuild's apt caches warm between runs.
package workspace
