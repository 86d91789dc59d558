package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidWeights       ErrorCode = 104

	// Bar input errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeMissingColumn         ErrorCode = 203
	ErrCodeInvalidBarOrder       ErrorCode = 204
	ErrCodeUnsupportedFormat     ErrorCode = 205

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound      ErrorCode = 400
	ErrCodeStrategyAlreadyExists ErrorCode = 401
	ErrCodeStrategyConfigError   ErrorCode = 402
	ErrCodeUnsupportedStrategy   ErrorCode = 403

	// Position state errors (500-599)
	ErrCodeStateInvariantViolation ErrorCode = 500

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestNoStrategies ErrorCode = 604
	ErrCodeBacktestNoDatasource ErrorCode = 608

	// Journal errors (700-799)
	ErrCodeJournalWriteFailed ErrorCode = 700
	ErrCodeJournalReadFailed  ErrorCode = 701
	ErrCodeSchemaMismatch     ErrorCode = 702
)
