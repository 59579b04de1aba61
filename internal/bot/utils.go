package bot

import (
	"regexp"
	"strings"
)

var badgePattern = regexp.MustCompile(`^\d{5}$`)

func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

func IsValidBadgeNumber(badge string) bool {
	return badgePattern.MatchString(badge)
}
