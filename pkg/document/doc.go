// Package document handles the file side of the ingestion pipeline:
// discovering ingestible files under a root directory, extracting plain
// text from the supported formats, and deriving the per-document metadata
// (stable document ID, title, category) that travels with every chunk.
//
// The supported formats are .docx, .doc, .pdf, .txt, and .md. Binary
// formats are decoded with format-specific extractors; text formats are
// read as UTF-8 directly.
package document
