package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/auditai-dev/auditai/internal/config"
	"github.com/auditai-dev/auditai/internal/logger"
)

// project is the loaded state every command starts from.
type project struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

func loadProject(g *globalFlags) (*project, error) {
	root, err := filepath.Abs(g.repo)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadRepo(root)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	return &project{root: root, cfg: cfg, log: logger.New(level)}, nil
}
