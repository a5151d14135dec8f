package repl

import "strings"

// Completer matches partial input against the shell's commands.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for the booklend shell.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"signin", "unlock", "logout", "status",
			"book list", "book get", "book add", "book edit", "book delete",
			"config show", "config validate", "config passcode",
			"version", "log-level", "history", "help", "exit", "quit",
		},
	}
}

// Complete returns the commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
