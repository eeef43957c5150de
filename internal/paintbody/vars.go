package paintbody

var (
	// Compile time checks to ensure the reference collaborators implement their interfaces
	_ ImageEncoder       = (*PoolingEncoder)(nil)
	_ PositionalEmbedder = FrequencyEmbedder{}
	_ Predictor          = (*LinearHead)(nil)
	_ VolumeIntegrator   = Raw2Outputs{}
	_ Aggregator         = maskedAggregator{}
	_ Aggregator         = averageAggregator{}
)
