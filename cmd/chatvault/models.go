package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"chatvault/internal/localmodels"
)

func modelsCommand(c *cli.Context) error {
	cfg := configFrom(c)

	dir := c.String("dir")
	if dir == "" {
		dir = cfg.OllamaDir
	}

	var models []localmodels.Model
	if path := c.String("models"); path != "" {
		var err error
		if models, err = localmodels.LoadModels(path); err != nil {
			return err
		}
	}

	paths, err := localmodels.NewManager(dir, c.Bool("overwrite")).Ensure(models)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, titleStyle.Render("Local models"))
	fmt.Fprintln(c.App.Writer, labelStyle.Render("Manifest")+valueStyle.Render(paths.Manifest))
	fmt.Fprintln(c.App.Writer, labelStyle.Render("Pull script")+valueStyle.Render(paths.Script))
	return nil
}
