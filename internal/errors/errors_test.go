package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestForgeError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ForgeError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
		{
			name:     "retryable error with cause",
			err:      WrapRetryable(fmt.Errorf("connection reset"), CategoryNetwork, SeverityWarning, "transient upload failure"),
			expected: "network (warning): transient upload failure: connection reset",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestForgeError_WithContext(t *testing.T) {
	err := New(CategoryBuild, SeverityFatal, "binary build failed").
		WithContext("descriptor", "pkg_1.0.dsc").
		WithContext("arch", "amd64")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}
	if err.Context["descriptor"] != "pkg_1.0.dsc" {
		t.Errorf("Context[descriptor] = %v, want pkg_1.0.dsc", err.Context["descriptor"])
	}
	if err.Context["arch"] != "amd64" {
		t.Errorf("Context[arch] = %v, want amd64", err.Context["arch"])
	}
}

func TestForgeError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("exit status 1")
	err := ChrootFailed("bookworm-amd64", cause)

	if !stdErrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := PublishTransient("pkg_1.0_amd64.deb", fmt.Errorf("503"))
	if !IsRetryable(retryable) {
		t.Error("PublishTransient should be retryable")
	}

	permanent := PublishAuthFailed(401)
	if IsRetryable(permanent) {
		t.Error("auth failure should not be retryable")
	}

	// a plain error is permanent
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors should not be retryable")
	}

	// retryability survives fmt.Errorf %w wrapping
	wrapped := fmt.Errorf("upload pkg: %w", retryable)
	if !IsRetryable(wrapped) {
		t.Error("retryability should survive %w wrapping")
	}
}

func TestCategoryHelpers(t *testing.T) {
	err := AmbiguousArtifact("/tmp/out", []string{"a.deb", "b.deb"})
	if !IsCategory(err, CategoryArtifact) {
		t.Error("expected artifact category")
	}
	if GetCategory(err) != CategoryArtifact {
		t.Errorf("GetCategory = %s, want artifact", GetCategory(err))
	}
	if GetCategory(fmt.Errorf("plain")) != CategoryInternal {
		t.Error("plain errors map to internal category")
	}
}
