// Package i18n provides the two-language label lookup for the
// synchronizer-owned ledger rows. Romanian is the default.
package i18n

import "cheltuieli/internal/core"

// Lang is a supported display language.
type Lang string

const (
	Romanian Lang = "ro"
	English  Lang = "en"
)

// Parse maps a stored language code to a Lang, defaulting to Romanian
// for anything unrecognized.
func Parse(code string) Lang {
	if code == string(English) {
		return English
	}
	return Romanian
}

var autoLabels = map[core.AutoFlag]map[Lang]string{
	core.AutoUtilitiesAverage: {
		Romanian: "Media Utilități",
		English:  "Utilities Average",
	},
	core.AutoAdministration: {
		Romanian: "Administrație",
		English:  "Administration",
	},
	core.AutoSupermarketAverage: {
		Romanian: "Media Supermarket",
		English:  "Supermarket Average",
	},
	core.AutoCarAverage: {
		Romanian: "Media Car",
		English:  "Car Average",
	},
}

// AutoRowLabel returns the display name of an auto row in the given
// language.
func AutoRowLabel(flag core.AutoFlag, lang Lang) string {
	return autoLabels[flag][lang]
}

// Labels returns a lookup function bound to one language, in the shape
// the synchronizer expects.
func Labels(lang Lang) func(core.AutoFlag) string {
	return func(f core.AutoFlag) string { return AutoRowLabel(f, lang) }
}
