package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.Quality < 10 || c.Convert.Quality > 100 {
		return errors.New("convert.quality must be between 10 and 100")
	}
	if c.Convert.ScalePercent < 1 || c.Convert.ScalePercent > 100 {
		return errors.New("convert.scale_percent must be between 1 and 100")
	}
	if c.Convert.TrimRightPx < 0 || c.Convert.TrimRightPx > 50 {
		return errors.New("convert.trim_right_px must be between 0 and 50")
	}
	if err := validateHexColor(c.Convert.MatteColor); err != nil {
		return fmt.Errorf("convert.matte_color: %w", err)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MinFreeSpaceMiB < 0 {
		return errors.New("workflow.min_free_space_mib must be >= 0")
	}
	return nil
}

func validateHexColor(value string) error {
	if len(value) != 4 && len(value) != 7 {
		return fmt.Errorf("%q is not a #RGB or #RRGGBB color", value)
	}
	if value[0] != '#' {
		return fmt.Errorf("%q must start with '#'", value)
	}
	for _, r := range value[1:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'F':
		case r >= 'a' && r <= 'f':
		default:
			return fmt.Errorf("%q contains a non-hex digit", value)
		}
	}
	return nil
}
