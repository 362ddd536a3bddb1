package process

import "github.com/PuerkitoBio/purell"

// DedupeKey returns a canonical form of an already cleaned URL for indexing
// the link log. It is never used as the cleaning result.
func DedupeKey(cleaned string) (string, error) {
	flags := purell.FlagLowercaseScheme |
		purell.FlagLowercaseHost |
		purell.FlagRemoveDefaultPort |
		purell.FlagRemoveFragment |
		purell.FlagRemoveEmptyQuerySeparator |
		purell.FlagDecodeUnnecessaryEscapes |
		purell.FlagSortQuery |
		purell.FlagRemoveDuplicateSlashes |
		purell.FlagRemoveDotSegments |
		purell.FlagRemoveWWW

	return purell.NormalizeURLString(cleaned, flags)
}
