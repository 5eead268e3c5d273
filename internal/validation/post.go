package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minTitleLen   = 5
	maxTitleLen   = 200
	minContentLen = 5
	maxContentLen = 10000
)

// assetRefRegex matches the hex content-hash shape of asset references.
// Anything else is rejected before it can reach the filesystem.
var assetRefRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)

// ValidatePostTitle checks the title of a post.
func ValidatePostTitle(title string) error {
	title = strings.TrimSpace(title)
	if len(title) < minTitleLen {
		return fmt.Errorf("title must be at least %d characters long", minTitleLen)
	}
	if len(title) > maxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLen)
	}
	return nil
}

// ValidatePostContent checks the body text of a post.
func ValidatePostContent(content string) error {
	content = strings.TrimSpace(content)
	if len(content) < minContentLen {
		return fmt.Errorf("content must be at least %d characters long", minContentLen)
	}
	if len(content) > maxContentLen {
		return fmt.Errorf("content must not exceed %d characters", maxContentLen)
	}
	return nil
}

// ValidateAssetRef checks that a reference has the expected hash shape.
func ValidateAssetRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("image reference is required")
	}
	if !assetRefRegex.MatchString(ref) {
		return fmt.Errorf("invalid image reference")
	}
	return nil
}
