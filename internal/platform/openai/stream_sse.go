package openai

import (
	"bufio"
	"io"
	"strings"
)

// maxSSELine bounds one event-stream line; Responses API deltas are small
// but a final response.completed event carries the whole output.
const maxSSELine = 4 << 20

// streamSSE reads an event stream and calls onEvent once per dispatched
// event with its name and joined data lines. A trailing event without a
// blank line is still dispatched.
func streamSSE(r io.Reader, onEvent func(event, data string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxSSELine)

	var (
		event string
		data  []string
	)
	dispatch := func() error {
		defer func() { event, data = "", nil }()
		if len(data) == 0 || onEvent == nil {
			return nil
		}
		return onEvent(event, strings.Join(data, "\n"))
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = strings.TrimSpace(value)
		case "data":
			data = append(data, value)
		}
		// Comments (":" prefix, empty field) and unknown fields are ignored.
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return dispatch()
}
