package supabase

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"portfolio-site/internal/backend"
)

var statusPattern = regexp.MustCompile(`status(?: code)?:? (\d{3})`)

// wrapError turns gotrue/postgrest errors into backend.Error, pulling the
// human readable message out of the JSON body when there is one.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	raw := err.Error()
	be := &backend.Error{Op: op, Message: raw}

	if m := statusPattern.FindStringSubmatch(raw); m != nil {
		be.Status, _ = strconv.Atoi(m[1])
	}
	if i := strings.Index(raw, "{"); i >= 0 {
		var body struct {
			Message          string `json:"message"`
			Msg              string `json:"msg"`
			ErrorDescription string `json:"error_description"`
			Error            string `json:"error"`
		}
		if json.Unmarshal([]byte(raw[i:]), &body) == nil {
			for _, msg := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
				if msg != "" {
					be.Message = msg
					break
				}
			}
		}
	}
	return be
}
