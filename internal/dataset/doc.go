// Package dataset assembles normalized games into season tables and writes
// them to CSV files and, optionally, a SQLite database.
package dataset
