package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.WorkDir, &c.Paths.OutputDir, &c.Paths.LogDir} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Convert.MatteColor = strings.ToUpper(strings.TrimSpace(c.Convert.MatteColor))
	if c.Convert.MatteColor != "" && !strings.HasPrefix(c.Convert.MatteColor, "#") {
		c.Convert.MatteColor = "#" + c.Convert.MatteColor
	}

	c.Export.ArchivePrefix = strings.TrimSpace(c.Export.ArchivePrefix)
	if c.Export.ArchivePrefix == "" {
		c.Export.ArchivePrefix = defaultArchivePrefix
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
