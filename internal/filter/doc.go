// Package filter decides which history records are redundant or uninteresting.
//
// Duplicates are collapsed on a normalized key (whitespace runs folded),
// keeping either the first or the last occurrence while preserving the
// relative order of everything retained. Commands can also be dropped when
// they match an exclude pattern or are shorter than a minimum length.
package filter
