// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Replacement outcome types

package replace

// RuleOutcome tallies one rule's effect on one repository.
// The zero value means the rule matched nothing there.
type RuleOutcome struct {
	RuleIndex           int
	FilesModified       int
	OccurrencesReplaced int
}

// Matched reports whether the rule replaced anything in the repository
func (o RuleOutcome) Matched() bool {
	return o.OccurrencesReplaced > 0
}
