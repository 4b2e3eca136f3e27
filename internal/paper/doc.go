// Package paper downloads arXiv papers and splits their extracted text into
// canonical sections. Inline math is lifted into placeholders so the
// notation stage can convert it to spoken English without fighting the
// cleaning regexes.
package paper
