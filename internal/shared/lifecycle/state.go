package lifecycle

import (
	"encoding/json"
	"fmt"
)

// State là trạng thái vòng đời của Book/Review.
// Deleted = soft-delete: record vẫn nằm trong DB nhưng bị loại khỏi
// mọi query public, mọi count và mọi aggregate.
type State uint8

const (
	Active State = iota + 1
	Deleted
)

// FromActive converts the persisted is_active column into a State.
func FromActive(active bool) State {
	if active {
		return Active
	}
	return Deleted
}

func (s State) IsActive() bool {
	return s == Active
}

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "active":
		*s = Active
	case "deleted":
		*s = Deleted
	default:
		return fmt.Errorf("unknown lifecycle state %q", raw)
	}
	return nil
}
