package slot

import "fmt"

// InvalidTokenError is returned when a time or day token cannot be parsed
// or does not fall on a valid boundary.
type InvalidTokenError struct {
	Token  string
	Reason string
}

func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid token %q: %s", e.Token, e.Reason)
}

// InvalidRangeError is returned when a range does not satisfy start < end.
type InvalidRangeError struct {
	Start TimeToken
	End   TimeToken
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %s-%s: start must be before end", e.Start.Display(), e.End.Display())
}

// OutOfRangeError is returned when stepping past the end of the day.
type OutOfRangeError struct {
	Token TimeToken
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("token %s has no successor within the day", e.Token.Token())
}
