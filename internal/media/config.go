package media

type ThumbnailConfig struct {
	MaxDimension int    `yaml:"max_dimension"`
	MaxBytes     int    `yaml:"max_bytes"`
	Qualities    []int  `yaml:"qualities"`
	FFmpegPath   string `yaml:"ffmpeg_path"`
}

type CompressionConfig struct {
	Enabled        bool  `yaml:"enabled"`
	ThresholdBytes int64 `yaml:"threshold_bytes"`
	MaxDimension   int   `yaml:"max_dimension"`
	Quality        int   `yaml:"quality"`
}

const (
	DefaultThumbnailDimension = 320
	DefaultThumbnailMaxBytes  = 150 * 1024
)

// DefaultQualities is the initial encoding quality followed by two reductions.
var DefaultQualities = []int{85, 65, 45}

func (c ThumbnailConfig) withDefaults() ThumbnailConfig {
	if c.MaxDimension <= 0 {
		c.MaxDimension = DefaultThumbnailDimension
	}

	if c.MaxBytes <= 0 || c.MaxBytes > DefaultThumbnailMaxBytes {
		c.MaxBytes = DefaultThumbnailMaxBytes
	}

	if len(c.Qualities) == 0 {
		c.Qualities = DefaultQualities
	}

	return c
}
