package cache

import (
	"context"
	"strconv"
	"time"

	"network/internal/middleware"
)

// ProfileTTL bounds how stale a cached profile can be if an invalidation is
// lost.
const ProfileTTL = 2 * time.Minute

// ProfileKey holds a user's rendered profile with its follow and post counters.
func ProfileKey(userID uint) string {
	return "profile:" + strconv.FormatUint(uint64(userID), 10)
}

// InvalidateProfiles drops cached profiles after their counters changed.
func InvalidateProfiles(ctx context.Context, userIDs ...uint) {
	if client == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = ProfileKey(id)
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "profile invalidation failed", "error", err)
	}
}
