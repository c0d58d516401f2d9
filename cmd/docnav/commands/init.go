package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docnav/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing files"`
	Docs  string `short:"d" name:"docs-dir" default:"./docs" help:"Docs directory for the descriptor scaffold"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Printf("Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return err
	}

	descriptorPath := filepath.Join(i.Docs, "index.rst")
	fmt.Printf("Writing descriptor scaffold to %s\n", descriptorPath)
	if err := config.InitDescriptor(descriptorPath, i.Force); err != nil {
		return err
	}

	fmt.Println("initialized successfully")
	return nil
}
