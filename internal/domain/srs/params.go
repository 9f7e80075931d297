package srs

import "github.com/phrazzld/scry-scheduler/internal/domain"

// BatchTier caps the session size when the number of due cards is at most MaxDue.
type BatchTier struct {
	MaxDue    int
	BatchSize int
}

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	// Easiness factor limits and creation default
	MinEasinessFactor     float64
	InitialEasinessFactor float64

	// Reviews with quality below PassingQuality are lapses
	PassingQuality int

	// Fixed intervals for the first and second successful review
	FirstInterval  int
	SecondInterval int

	// Upper bound in days for any computed interval
	MaximumInterval int

	// Easy answers faster than this map to quality 5, slower ones to 4
	FastResponseThresholdMs int

	// Quality assigned to each UI answer
	EasyFastQuality int
	EasySlowQuality int
	HardQuality     int

	// Classification thresholds for learning statistics
	LearningRepetitions  int
	MasteredIntervalDays int

	// Session sizing; totals above the last tier use OverflowBatchSize.
	// Totals up to UncappedBatchMax are returned in full.
	UncappedBatchMax  int
	BatchTiers        []BatchTier
	OverflowBatchSize int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	MinEasinessFactor       float64
	InitialEasinessFactor   float64
	FastResponseThresholdMs int
	MasteredIntervalDays    int
	LearningRepetitions     int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEasinessFactor:     domain.MinEasinessFactor,
		InitialEasinessFactor: domain.DefaultEasinessFactor,

		PassingQuality: 3,

		FirstInterval:   1,
		SecondInterval:  6,
		MaximumInterval: domain.MaxInterval,

		FastResponseThresholdMs: 3000,

		EasyFastQuality: 5,
		EasySlowQuality: 4,
		HardQuality:     2,

		LearningRepetitions:  2,
		MasteredIntervalDays: 21,

		UncappedBatchMax: 10,
		BatchTiers: []BatchTier{
			{MaxDue: 50, BatchSize: 15},
			{MaxDue: 100, BatchSize: 20},
		},
		OverflowBatchSize: 25,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEasinessFactor > 0 {
		params.MinEasinessFactor = config.MinEasinessFactor
	}
	if config.InitialEasinessFactor > 0 {
		params.InitialEasinessFactor = config.InitialEasinessFactor
	}
	if config.FastResponseThresholdMs > 0 {
		params.FastResponseThresholdMs = config.FastResponseThresholdMs
	}
	if config.MasteredIntervalDays > 0 {
		params.MasteredIntervalDays = config.MasteredIntervalDays
	}
	if config.LearningRepetitions > 0 {
		params.LearningRepetitions = config.LearningRepetitions
	}

	return params
}
