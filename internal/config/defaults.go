package config

const (
	defaultWorkDir         = "~/.local/share/imgpress/work"
	defaultOutputDir       = "~/imgpress"
	defaultLogDir          = "~/.local/share/imgpress/logs"
	defaultQuality         = 80
	defaultScalePercent    = 100
	defaultTrimRightPx     = 0
	defaultMatteColor      = "#FFFFFF"
	defaultArchivePrefix   = "converted"
	defaultMinFreeSpaceMiB = 256
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Convert: Convert{
			Quality:      defaultQuality,
			ScalePercent: defaultScalePercent,
			TrimRightPx:  defaultTrimRightPx,
			MatteColor:   defaultMatteColor,
		},
		Export: Export{
			ArchivePrefix: defaultArchivePrefix,
		},
		Workflow: Workflow{
			MinFreeSpaceMiB: defaultMinFreeSpaceMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
