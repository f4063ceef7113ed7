package smoke

// Expected submit endpoint behaviour.
const (
	SubmitPath = "/tetris/telegramBot/v1/submitTetris/"
	SubmitAck  = "Score submitted"
	StatusOK   = 200
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)

// Generated score ranges.
const (
	maxPoints   = 20_000
	maxLevel    = 10
	maxFigures  = 500
	maxLines    = 200
	maxDuration = 30 * 60 * 1000
)
