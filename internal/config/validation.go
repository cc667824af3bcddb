package config

import (
	"regexp"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
)

// archPattern matches Debian architecture names (amd64, arm64, armhf, i386, ...).
var archPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// distPattern matches distribution/suite names (bookworm, trixie, unstable, focal, ...).
var distPattern = regexp.MustCompile(`^[a-z][a-z0-9.-]*$`)

// Validate checks the configuration invariants that must hold before any
// external tool runs. Publish credentials are validated lazily by the
// publish command, since build-only invocations do not need them.
func (c *Config) Validate() error {
	if c.Chroot.Arch == "" {
		return forgeerr.ValidationFailed("chroot.arch", "architecture is required (config or DEBFORGE_ARCH)")
	}
	if !archPattern.MatchString(c.Chroot.Arch) {
		return forgeerr.ValidationFailed("chroot.arch", "not a valid Debian architecture name")
	}
	if c.Chroot.Distribution == "" {
		return forgeerr.ValidationFailed("chroot.distribution", "distribution is required (config or DEBFORGE_DIST)")
	}
	if !distPattern.MatchString(c.Chroot.Distribution) {
		return forgeerr.ValidationFailed("chroot.distribution", "not a valid distribution name")
	}
	if c.Retry.MaxRetries != nil && *c.Retry.MaxRetries < 0 {
		return forgeerr.ValidationFailed("retry.max_retries", "cannot be negative")
	}
	if c.Notify.Enabled && c.Notify.URL == "" {
		return forgeerr.ValidationFailed("notify.url", "required when notify is enabled")
	}
	return nil
}

// ValidatePublish checks the credentials needed for uploads. Called by
// commands that actually publish.
func (c *Config) ValidatePublish() error {
	if c.Publish.Account == "" {
		return forgeerr.ValidationFailed("publish.account", "account is required (config or FURY_ACCOUNT)")
	}
	if c.Publish.Token == "" {
		return forgeerr.ValidationFailed("publish.token", "token is required (FURY_TOKEN or DEBFORGE_PUBLISH_TOKEN)")
	}
	return nil
}
