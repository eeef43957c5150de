package paintbody

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoggingCfg selects the log level and handler format.
type LoggingCfg struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

// ReferenceCfg sizes the built-in encoder, embedder and predictor.
type ReferenceCfg struct {
	XYZFreqs      int   `json:"xyzFreqs,omitempty" yaml:"xyzFreqs,omitempty" toml:"xyzFreqs,omitempty"`
	ViewFreqs     int   `json:"viewFreqs,omitempty" yaml:"viewFreqs,omitempty" toml:"viewFreqs,omitempty"`
	HolderStride  int   `json:"holderStride,omitempty" yaml:"holderStride,omitempty" toml:"holderStride,omitempty"`
	PixelStride   int   `json:"pixelStride,omitempty" yaml:"pixelStride,omitempty" toml:"pixelStride,omitempty"`
	PixelChannels int   `json:"pixelChannels,omitempty" yaml:"pixelChannels,omitempty" toml:"pixelChannels,omitempty"`
	Seed          int64 `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`
}

// OutputCfg controls where and how rendered batches are written.
type OutputCfg struct {
	Dir      string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	Gamma    Real   `json:"gamma,omitempty" yaml:"gamma,omitempty" toml:"gamma,omitempty"`
	GIFDelay int    `json:"gifDelay,omitempty" yaml:"gifDelay,omitempty" toml:"gifDelay,omitempty"`
	PNG16    bool   `json:"png16,omitempty" yaml:"png16,omitempty" toml:"png16,omitempty"`
	Raw      bool   `json:"raw,omitempty" yaml:"raw,omitempty" toml:"raw,omitempty"`
}

// Config is the on-disk configuration: render options plus the logging,
// reference model and output sections.
type Config struct {
	NSamples       int     `json:"nSamples" yaml:"nSamples" toml:"nSamples"`
	Perturb        *Real   `json:"perturb,omitempty" yaml:"perturb,omitempty" toml:"perturb,omitempty"`
	RawNoiseStd    Real    `json:"rawNoiseStd" yaml:"rawNoiseStd" toml:"rawNoiseStd"`
	WhiteBkgd      bool    `json:"whiteBkgd" yaml:"whiteBkgd" toml:"whiteBkgd"`
	TimeSteps      int     `json:"timeSteps" yaml:"timeSteps" toml:"timeSteps"`
	Aggregation    string  `json:"aggregation" yaml:"aggregation" toml:"aggregation"`
	ChunkThreshold *int    `json:"chunkThreshold,omitempty" yaml:"chunkThreshold,omitempty" toml:"chunkThreshold,omitempty"`
	ChunkSize      int     `json:"chunkSize" yaml:"chunkSize" toml:"chunkSize"`
	VoxelSize      [3]Real `json:"voxelSize" yaml:"voxelSize" toml:"voxelSize"` // d, h, w
	EmbedSize      int     `json:"embedSize" yaml:"embedSize" toml:"embedSize"`
	RunMode        string  `json:"runMode" yaml:"runMode" toml:"runMode"`
	Projection     string  `json:"projection" yaml:"projection" toml:"projection"`
	Workers        int     `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty"`
	Seed           int64   `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty"`
	MaxScratch     int     `json:"maxScratch,omitempty" yaml:"maxScratch,omitempty" toml:"maxScratch,omitempty"`

	Logging   LoggingCfg   `json:"logging" yaml:"logging" toml:"logging"`
	Reference ReferenceCfg `json:"reference" yaml:"reference" toml:"reference"`
	Output    OutputCfg    `json:"output" yaml:"output" toml:"output"`
}

// Options converts the config into render options.
func (c *Config) Options() (Options, error) {
	agg, err := ParseAggregationStrategy(c.Aggregation)
	if err != nil {
		return Options{}, err
	}
	proj, err := ParseProjectionPolicy(c.Projection)
	if err != nil {
		return Options{}, err
	}
	o := Options{
		NSamples:       c.NSamples,
		RawNoiseStd:    c.RawNoiseStd,
		WhiteBkgd:      c.WhiteBkgd,
		TimeSteps:      c.TimeSteps,
		Aggregation:    agg,
		ChunkThreshold: ChunkThreshold,
		ChunkSize:      c.ChunkSize,
		VoxelSize:      c.VoxelSize,
		EmbedSize:      c.EmbedSize,
		RunMode:        c.RunMode,
		Projection:     proj,
	}
	if c.Perturb != nil {
		o.Perturb = *c.Perturb
	}
	if c.ChunkThreshold != nil {
		o.ChunkThreshold = *c.ChunkThreshold
	}
	return o, o.Validate()
}

// decodeConfig picks the decoder from the file extension; anything that is
// not yaml or toml is read as JSON.
func decodeConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}

// LoadConfig reads path and fills defaults. An empty path yields the
// defaults alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := decodeConfig(path, data, &cfg); err != nil {
			return nil, errors.Wrapf(err, "decode config %s", path)
		}
	}
	cfg.applyDefaults()
	if _, err := cfg.Options(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if err := cfg.validateReference(); err != nil {
		return nil, err
	}
	DebugLog("Loaded config from %s: samples=%d, timeSteps=%d, aggregation=%s, chunk=(%d, %d)", path, cfg.NSamples, cfg.TimeSteps, cfg.Aggregation, *cfg.ChunkThreshold, cfg.ChunkSize)
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.NSamples <= 0 {
		c.NSamples = NSamples
	}
	if c.Perturb == nil {
		p := Real(Perturb)
		c.Perturb = &p
	}
	if c.TimeSteps <= 0 {
		c.TimeSteps = TimeSteps
	}
	if c.Aggregation == "" {
		c.Aggregation = AggregateAverage.String()
	}
	if c.ChunkThreshold == nil {
		ct := ChunkThreshold
		c.ChunkThreshold = &ct
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = ChunkSize
	}
	for a := range c.VoxelSize {
		if c.VoxelSize[a] == 0 {
			c.VoxelSize[a] = VoxelSize
		}
	}
	if c.EmbedSize <= 0 {
		c.EmbedSize = EmbedSize
	}
	if c.RunMode == "" {
		c.RunMode = RunMode
	}
	if c.Projection == "" {
		c.Projection = ProjectFail.String()
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "plain"
	}
	r := &c.Reference
	if r.XYZFreqs <= 0 {
		r.XYZFreqs = XYZFreqs
	}
	if r.ViewFreqs <= 0 {
		r.ViewFreqs = ViewFreqs
	}
	if r.HolderStride <= 0 {
		r.HolderStride = HolderStride
	}
	if r.PixelStride <= 0 {
		r.PixelStride = PixelStride
	}
	if r.PixelChannels <= 0 {
		r.PixelChannels = PixelChannels
	}
	if c.Output.Dir == "" {
		c.Output.Dir = OutDir
	}
	if c.Output.Gamma <= 0 {
		c.Output.Gamma = Gamma
	}
	if c.Output.GIFDelay <= 0 {
		c.Output.GIFDelay = GIFDelay
	}
}

func (c *Config) validateReference() error {
	if c.RunMode != RunMode && c.RunMode != RunModeTest {
		return errors.Errorf("runMode must be %q or %q, got %q", RunMode, RunModeTest, c.RunMode)
	}
	if c.Workers < 0 || c.MaxScratch < 0 {
		return errors.Errorf("workers and maxScratch must be >= 0, got %d and %d", c.Workers, c.MaxScratch)
	}
	return nil
}
