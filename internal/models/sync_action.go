package models

import (
	"fmt"
	"strings"
)

// SyncAction represents the lifecycle action being mirrored to Discord
type SyncAction string

const (
	SyncActionCreate SyncAction = "create"
	SyncActionUpdate SyncAction = "update"
	SyncActionDelete SyncAction = "delete"
)

// ParseSyncAction parses a string into a SyncAction
// Returns an error if the action is unknown
func ParseSyncAction(name string) (SyncAction, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	validActions := []SyncAction{
		SyncActionCreate,
		SyncActionUpdate,
		SyncActionDelete,
	}

	for _, action := range validActions {
		if string(action) == name {
			return action, nil
		}
	}

	return "", fmt.Errorf("unknown sync action: %s", name)
}
