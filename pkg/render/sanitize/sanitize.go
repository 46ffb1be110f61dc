// Package sanitize cleans user supplied markup found in table cells before it
// is embedded into generated HTML.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// HTML strips scripts, event handlers, and unsafe URLs from raw while keeping
// the basic formatting and links a contact card may carry.
func HTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return cellSanitizer().Sanitize(raw)
}

func cellSanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(false)
		p.AllowURLSchemes("mailto", "tel", "http", "https")
		policy = p
	})
	return policy
}
