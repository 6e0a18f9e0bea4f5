package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// flexibleInt accepts a JSON number or a numeric string ("45"). Anything
// else fails to decode.
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}

	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("%q is not a valid number", string(b))
	}
	if n != math.Trunc(n) || n > math.MaxInt32 || n < math.MinInt32 {
		return fmt.Errorf("%q is not a whole number", string(b))
	}

	*f = flexibleInt(n)
	return nil
}

func (f *flexibleInt) intPtr() *int {
	if f == nil {
		return nil
	}
	v := int(*f)
	return &v
}

type (
	startMeetingBody struct {
		UserID      string  `json:"userId"`
		Description *string `json:"description"`
	}

	participantBody struct {
		UserID    string `json:"userId"`
		SessionID string `json:"socketId"`
	}

	saveMessageBody struct {
		MeetingID string          `json:"meetId"`
		Message   json.RawMessage `json:"message"`
	}

	chatEntryBody struct {
		Name      string  `json:"name"`
		Message   string  `json:"message"`
		Timestamp *string `json:"timestamp"`
	}

	registerUserBody struct {
		Name     string       `json:"name"`
		Age      *flexibleInt `json:"age"`
		PhotoURL *string      `json:"photoURL"`
	}

	updateUserBody struct {
		Name     *string      `json:"name"`
		Age      *flexibleInt `json:"age"`
		PhotoURL *string      `json:"photoURL"`
	}
)
