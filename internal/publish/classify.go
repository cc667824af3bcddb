package publish

import (
	"fmt"
	"net/http"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
)

// classifyStatus maps an upload response status to a permanent or retryable
// error, or nil for any 2xx.
func classifyStatus(artifactName string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return forgeerr.PublishAuthFailed(status)
	case status == http.StatusConflict:
		return forgeerr.PublishDuplicate(artifactName)
	case status >= 500:
		return forgeerr.PublishTransient(artifactName, fmt.Errorf("server responded %d", status))
	default:
		return forgeerr.PublishRejected(artifactName, status)
	}
}
