package models

// FontFamilyRule is one CSS rule whose declaration block sets font-family.
// Produced per scan pass by the collector; never persisted.
type FontFamilyRule struct {
	SelectorText string
	FontFamily   string
}
