package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"morelikethis/internal/config"
	"morelikethis/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// newLogger builds a logger writing to stream ("stdout" or "stderr") plus the
// configured log file. One-shot commands log to stderr so their stdout stays
// machine readable.
func (c *commandContext) newLogger(stream string) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	scoped := *cfg
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		scoped.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
	}
	var logger *slog.Logger
	if stream == "stdout" {
		logger, err = logging.NewFromConfig(&scoped)
	} else {
		outputs := []string{stream}
		if file := strings.TrimSpace(scoped.Logging.File); file != "" {
			outputs = append(outputs, file)
		}
		logger, err = logging.New(logging.Options{
			Level:       scoped.Logging.Level,
			Format:      scoped.Logging.Format,
			OutputPaths: outputs,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// withPipeline loads config, builds a logger and the recommendation pipeline,
// then runs fn.
func (c *commandContext) withPipeline(stream string, fn func(*pipeline) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.newLogger(stream)
	if err != nil {
		return err
	}
	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	return fn(p)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
