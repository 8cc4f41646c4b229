package releasetui

// GetErrorMessage exposes getErrorMessage for tests.
var GetErrorMessage = getErrorMessage
