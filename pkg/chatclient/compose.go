package chatclient

import "github.com/Kumampet/itanavi-chat/pkg/utils"

// MaxComposeLength is the composer cap in full-width-equivalent characters.
// Matches the server-side limit on message creation.
const MaxComposeLength = 1000

// ClipContent truncates composer input to the length cap. The composer
// calls this on every input change, so typing past the limit clips the text
// rather than rejecting the message later.
func ClipContent(s string) string {
	return utils.ClipFullWidth(s, MaxComposeLength)
}

// ComposeLength returns the input's length in full-width-equivalent
// characters, rounded up, for the composer's counter display.
func ComposeLength(s string) int {
	return (utils.FullWidthLen(s) + 1) / 2
}
