// Package language normalizes and compares the language tags exchanged
// with TMDB ("lang" or "lang-REGION"). Canonicalization is delegated to
// golang.org/x/text with a lenient fallback for codes outside its tables.
package language
