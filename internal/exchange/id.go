package exchange

import "github.com/google/uuid"

// RequestID uniquely identifies one request across build, send, display
// and history. IDs are random, never reused, and comparable by value.
type RequestID uuid.UUID

func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

func ParseRequestID(text string) (RequestID, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(id), nil
}

func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

func (id RequestID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RequestID) UnmarshalText(text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*id = RequestID(parsed)
	return nil
}
