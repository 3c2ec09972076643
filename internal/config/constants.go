package config

import "time"

const (
	// Provider request timeout
	RequestTimeout = 90 * time.Second

	// Default models
	DefaultInterpreterModel = "anthropic/claude-opus-4.5"
	DefaultImageModel       = "google/gemini-3-pro-image-preview"

	// Per-step sampling temperatures
	InterpreterTemperature  = 0.7
	DefaultImageTemperature = 0.7
	InventoryTemperature    = 0.2
	OperationsTemperature   = 0.5
	ReviewTemperature       = 0.3

	// Per-step token caps
	InterpreterMaxTokens = 4000
	SupervisorMaxTokens  = 4000
	ReviewMaxTokens      = 3000

	// Refinement loop
	DefaultMaxIterations = 2
	MaxIterationsLimit   = 10

	// HTTP server
	ReadHeaderTimeout = 10 * time.Second
	ShutdownTimeout   = 15 * time.Second

	// Attribution headers sent to OpenRouter
	RefererHeader = "https://figuresmith.dev"
	TitleHeader   = "Figuresmith"

	// Archive listing page size
	ArchiveListLimit = 20
)
