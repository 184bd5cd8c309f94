package content

import (
	"strings"

	"github.com/nossahistoria/romantic/internal/util"
)

// ToSlug turns s into a URL slug: accents are folded ("Coração" becomes
// "coracao"), runs of anything outside [a-z0-9] become one hyphen and
// leading or trailing hyphens are dropped.
func ToSlug(s string) string {
	folded := strings.ToLower(util.StripMarks(s))
	var sb strings.Builder
	sb.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return sb.String()
}
