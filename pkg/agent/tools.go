package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calculator evaluates simple two-operand arithmetic expressions.
type Calculator struct{}

func (c Calculator) Name() string {
	return "calculator"
}

func (c Calculator) Description() string {
	return "Evaluates a basic arithmetic expression of the form '<number> <operator> <number>', " +
		"where operator is one of +, -, *, /. Example input: '12.5 * 3'."
}

func (c Calculator) Call(_ context.Context, input string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) != 3 {
		return "", fmt.Errorf("expected '<number> <operator> <number>', got %q", input)
	}

	left, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return "", fmt.Errorf("invalid left operand %q", fields[0])
	}

	right, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return "", fmt.Errorf("invalid right operand %q", fields[2])
	}

	var result float64
	switch fields[1] {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return "", fmt.Errorf("division by zero")
		}
		result = left / right
	default:
		return "", fmt.Errorf("unsupported operator %q", fields[1])
	}

	return strconv.FormatFloat(result, 'f', -1, 64), nil
}

// Clock reports the current time, optionally in a named time zone.
type Clock struct {
	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

func (c Clock) Name() string {
	return "clock"
}

func (c Clock) Description() string {
	return "Returns the current date and time. Input may be an IANA time zone name " +
		"such as 'Europe/Berlin'; leave empty for UTC."
}

func (c Clock) Call(_ context.Context, input string) (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	loc := time.UTC
	if zone := strings.TrimSpace(input); zone != "" {
		var err error
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return "", fmt.Errorf("unknown time zone %q", zone)
		}
	}

	return now().In(loc).Format("Mon, 02 Jan 2006 15:04:05 MST"), nil
}

// WordCount counts the words in its input.
type WordCount struct{}

func (w WordCount) Name() string {
	return "word_count"
}

func (w WordCount) Description() string {
	return "Counts the number of words in the given text. Input is the text to count."
}

func (w WordCount) Call(_ context.Context, input string) (string, error) {
	return strconv.Itoa(len(strings.Fields(input))), nil
}
