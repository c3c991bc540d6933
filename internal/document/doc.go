// Package document turns raw documents into clean, ordered text lines.
//
// A [Source] yields raw lines (plain text files, stdin, or HTML pages).
// [Normalize] then trims them, drops noise (URLs, stray characters, blanks)
// and removes duplicates while keeping first-seen order.
package document
