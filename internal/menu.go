// Copyright (C) 2025 Regi Ellis
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// MenuChoices maps menu entries onto their command handlers.
type MenuChoices struct {
	Install  CommandHandler
	Update   CommandHandler
	Models   CommandHandler
	Check    CommandHandler
	Status   CommandHandler
	Watch    CommandHandler
	Readme   CommandHandler
	ShowHelp func()
}

// ShowMainMenu runs the interactive menu loop until the user exits.
func ShowMainMenu(choices MenuChoices) error {
	for {
		var choice string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title(TitleStyle.Render("comfy-bootstrap")).
				Description("Select an action:").
				Options(
					huh.NewOption("Install / Reconcile ComfyUI", "install"),
					huh.NewOption("Update ComfyUI", "update"),
					huh.NewOption("Generate Model Paths Manifest", "models"),
					huh.NewOption("Liveness Check", "check"),
					huh.NewOption("Status", "status"),
					huh.NewOption("Watch Plugins for Changes", "watch"),
					huh.NewOption("View Plugin README", "readme"),
					huh.NewOption("Help", "help"),
					huh.NewOption("Exit", "exit"),
				).
				Value(&choice),
		)).WithTheme(huh.ThemeCharm())

		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println(InfoStyle.Render("Operation cancelled by user."))
				return nil
			}
			return err
		}

		var handler CommandHandler
		switch choice {
		case "install":
			handler = choices.Install
		case "update":
			handler = choices.Update
		case "models":
			handler = choices.Models
		case "check":
			handler = choices.Check
		case "status":
			handler = choices.Status
		case "watch":
			handler = choices.Watch
		case "readme":
			handler = choices.Readme
		case "help":
			choices.ShowHelp()
			continue
		case "exit", "":
			fmt.Println(InfoStyle.Render("Exiting."))
			return nil
		}
		if handler != nil {
			if err := handler(); err != nil {
				fmt.Println(ErrorStyle.Render(err.Error()))
			}
		}
	}
}

// PromptForDirectory asks the user for a directory path. Unattended runs
// never prompt: the provided default (possibly empty, meaning "no
// selection") is returned unchanged.
func PromptForDirectory(mode Mode, title, defaultPath string) (string, error) {
	if mode == Unattended {
		return defaultPath, nil
	}
	value := defaultPath
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title(title).Value(&value),
	)).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return defaultPath, nil
		}
		return "", err
	}
	return value, nil
}

// Confirm asks a yes/no question; unattended runs take the default.
func Confirm(mode Mode, title string, defaultAnswer bool) bool {
	if mode == Unattended {
		return defaultAnswer
	}
	answer := defaultAnswer
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().Title(title).Value(&answer),
	)).WithTheme(huh.ThemeCharm())
	if err := form.Run(); err != nil {
		return defaultAnswer
	}
	return answer
}
