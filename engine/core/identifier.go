package core

import (
	"github.com/google/uuid"
)

// ResourceID tags a GPU object in logs so that creation and destruction
// lines can be matched up.
type ResourceID string

func NewResourceID(kind string) ResourceID {
	return ResourceID(kind + "-" + uuid.NewString()[:8])
}
