package internal

import (
	"fmt"
	"os"
	"strings"
)

// CommandHandler represents a function that handles a CLI command
type CommandHandler func() error

// Command represents a CLI command with its metadata
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Category    string
	Handler     CommandHandler
}

// CLIRouter handles command registration and routing
type CLIRouter struct {
	commands []*Command
	byName   map[string]*Command
}

// NewCLIRouter creates a new CLI router
func NewCLIRouter() *CLIRouter {
	return &CLIRouter{byName: make(map[string]*Command)}
}

// RegisterCommand registers a command and its aliases with the router.
func (r *CLIRouter) RegisterCommand(cmd *Command) {
	r.commands = append(r.commands, cmd)
	r.byName[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.byName[alias] = cmd
	}
}

// Route processes command line arguments and executes the matching command.
// It returns false when no command was given so the caller can fall back to
// the interactive menu.
func (r *CLIRouter) Route(args []string) (bool, error) {
	if len(args) <= 1 {
		return false, nil
	}
	name := args[1]
	cmd, exists := r.byName[name]
	if !exists {
		fmt.Println(ErrorStyle.Render("Unknown command: " + name))
		r.ShowHelp()
		os.Exit(1)
	}
	return true, cmd.Handler()
}

// ShowHelp displays available commands grouped by category.
func (r *CLIRouter) ShowHelp() {
	fmt.Println(TitleStyle.Render("comfy-bootstrap - ComfyUI install reconciler"))
	fmt.Println()
	fmt.Println(InfoStyle.Render("Usage: comfy-bootstrap [command]"))
	fmt.Println()

	var lastCategory string
	for _, cmd := range r.commands {
		if cmd.Category != lastCategory {
			if lastCategory != "" {
				fmt.Println()
			}
			fmt.Println(SuccessStyle.Render(cmd.Category + ":"))
			lastCategory = cmd.Category
		}
		aliases := ""
		if len(cmd.Aliases) > 0 {
			aliases = " (" + strings.Join(cmd.Aliases, ", ") + ")"
		}
		fmt.Printf("  %-14s %s%s\n", cmd.Name, cmd.Description, aliases)
	}
	fmt.Println()
	fmt.Println(InfoStyle.Render("Run without arguments for the interactive menu."))
}
