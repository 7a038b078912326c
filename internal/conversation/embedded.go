package conversation

import (
	"strings"

	"github.com/tidwall/gjson"
)

// TryParseEmbedded attempts to read text as a JSON object or array. Text that
// is not JSON yields ok == false; that is the normal case, not an error.
func TryParseEmbedded(text string) (Result, bool) {
	text = strings.TrimSpace(text)
	if text == "" || (text[0] != '{' && text[0] != '[') {
		return Result{}, false
	}
	if !gjson.Valid(text) {
		return Result{}, false
	}
	return gjson.Parse(text), true
}
