package recipe

import (
	"fmt"
	"strings"

	"github.com/krishkalaria12/recipe-serve/apperror"
)

// FailureMode decides what a failed attachment does to the whole request.
type FailureMode string

const (
	// SkipFailed logs the failed attachment and carries on without it.
	SkipFailed FailureMode = "skip"
	// AbortOnFailure cancels the request and removes every asset it uploaded.
	AbortOnFailure FailureMode = "abort"
)

// ShowcaseIndexing decides which sequence the showcase index refers to.
type ShowcaseIndexing string

const (
	// IndexSubmitted resolves the index against the attachments as sent.
	// If that attachment failed the recipe has no showcase.
	IndexSubmitted ShowcaseIndexing = "submitted"
	// IndexSuccessful resolves the index against the uploaded images only.
	IndexSuccessful ShowcaseIndexing = "successful"
)

type Policy struct {
	OnAttachmentFailure FailureMode
	ShowcaseIndexing    ShowcaseIndexing
}

func DefaultPolicy() Policy {
	return Policy{OnAttachmentFailure: SkipFailed, ShowcaseIndexing: IndexSubmitted}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.OnAttachmentFailure == "" {
		p.OnAttachmentFailure = def.OnAttachmentFailure
	}
	if p.ShowcaseIndexing == "" {
		p.ShowcaseIndexing = def.ShowcaseIndexing
	}
	return p
}

// ParseFailureMode accepts "skip", "abort" or an empty string (skip).
func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SkipFailed:
		return SkipFailed, nil
	case AbortOnFailure:
		return AbortOnFailure, nil
	default:
		return "", apperror.ValidationFailed("onFailure", fmt.Sprintf("unknown failure mode %q", s))
	}
}

// ParseShowcaseIndexing accepts "submitted", "successful" or an empty
// string (submitted).
func ParseShowcaseIndexing(s string) (ShowcaseIndexing, error) {
	switch ShowcaseIndexing(strings.ToLower(strings.TrimSpace(s))) {
	case "", IndexSubmitted:
		return IndexSubmitted, nil
	case IndexSuccessful:
		return IndexSuccessful, nil
	default:
		return "", apperror.ValidationFailed("showcaseIndexing", fmt.Sprintf("unknown showcase indexing %q", s))
	}
}
