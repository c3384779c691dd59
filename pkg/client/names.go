package client

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// displayName prefers the provider's spelling of a place and falls back to
// a title-cased form of the (lower-cased) location token.
func displayName(providerName, location string) string {
	if providerName != "" {
		return providerName
	}
	if location != strings.ToLower(location) {
		return location
	}
	return cases.Title(language.English).String(location)
}
