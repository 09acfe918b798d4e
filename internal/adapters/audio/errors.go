package audio

import "fmt"

var ErrNotFound = fmt.Errorf("audio: not found")

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("audio api status %d: %s", e.Status, e.Body)
}
