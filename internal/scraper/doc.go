// Package scraper fetches race odds pages over HTTP.
//
// The Fetcher applies a fixed timeout and User-Agent, rejects non-200
// responses, caps the body size and decodes legacy Japanese encodings
// (EUC-JP, Shift_JIS) to UTF-8 before the page reaches the extractor.
// Failed fetches are reported to the caller and never retried here.
package scraper
