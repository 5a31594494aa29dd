// Package frame provides the small tabular model shared by the box-score
// parser, the normalizer and the dataset writers.
//
// A Frame keeps columns in source order and allows duplicate names, which is
// what the box-score tables look like after their basic and advanced halves
// are joined. Cells are Values: a number, a piece of text, or missing.
package frame
