// Package fwsymregexp holds the patterns that user-supplied
// OS families and version selectors must match.
package fwsymregexp
