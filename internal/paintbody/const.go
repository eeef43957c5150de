package paintbody

// Channel indices into Raw.
const (
	ChR     = 0
	ChG     = 1
	ChB     = 2
	ChSigma = 3
)

// Defaults applied by loadConfig.
const (
	NSamples       = 64
	Perturb        = 1.0
	RawNoiseStd    = 0.0
	TimeSteps      = 1
	ChunkThreshold = 2048      // points; above this the evaluator chunks
	ChunkSize      = 1024 * 32 // points per predictor call when chunking
	EmbedSize      = 64
	VoxelSize      = 0.005
	RunMode        = "train"
	RunModeTest    = "test" // releases scratch after each Eval render
	XYZFreqs       = 10
	ViewFreqs      = 4
	HolderStride   = 4
	PixelStride    = 2
	PixelChannels  = 32
	Gamma          = 1.0
	GIFDelay       = 10 // 100ths of a second per frame
	OutDir         = "out"
	// hot-loop constants
	minDepth    = 1e-6
	farSegment  = 1e10
	transEps    = 1e-10
	dispEps     = 1e-10
	parallelEps = 1e-12
)
