// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Commit message placeholder expansion

package orchestrator

import (
	"regexp"
	"strconv"
	"time"
)

// placeholderPattern matches {name} placeholders in the commit template
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// formatCommitMessage expands the built-in placeholders ({repo_name},
// {date}, {datetime}, {timestamp}, {replacement_count}, {command_count})
// and the template's custom variables. Unresolved placeholders are left
// literal and their names returned so the caller can surface a warning.
func formatCommitMessage(template, repoName string, variables map[string]string,
	replacementCount, commandCount int, now time.Time) (string, []string) {

	values := map[string]string{
		"repo_name":         repoName,
		"date":              now.Format("2006-01-02"),
		"datetime":          now.Format("2006-01-02 15:04:05"),
		"timestamp":         strconv.FormatInt(now.Unix(), 10),
		"replacement_count": strconv.Itoa(replacementCount),
		"command_count":     strconv.Itoa(commandCount),
	}
	for name, value := range variables {
		values[name] = value
	}

	var unresolved []string
	message := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := values[name]; ok {
			return value
		}
		unresolved = append(unresolved, name)
		return match
	})

	return message, unresolved
}
