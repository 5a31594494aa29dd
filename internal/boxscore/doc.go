// Package boxscore reads a saved basketball-reference box score page.
//
// Parse cleans the page (secondary header rows removed, commented-out tables
// restored) and the Document methods extract the line score, the per-team
// basic and advanced stat tables and the season label.
package boxscore
