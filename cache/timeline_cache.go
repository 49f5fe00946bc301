package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"FableStudio/db"
	"FableStudio/model"

	"github.com/redis/go-redis/v9"
)

// timelineTTL bounds how long a cached timeline survives without the
// project being reopened.
const timelineTTL = 24 * time.Hour

// TimelineState is the serialized editor state cached per project so a
// session can reopen without hitting MySQL for every track and clip.
type TimelineState struct {
	Tracks  []*model.Track         `json:"tracks"`
	Markers []*model.ChapterMarker `json:"markers"`
}

func timelineKey(projectID int64) string {
	return fmt.Sprintf("timeline:%d", projectID)
}

// SaveTimeline caches the full timeline state of a project.
func SaveTimeline(ctx context.Context, projectID int64, state *TimelineState) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline state: %w", err)
	}

	if err := db.RedisClient.Set(ctx, timelineKey(projectID), payload, timelineTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache timeline for project %d: %w", projectID, err)
	}
	return nil
}

// LoadTimeline returns the cached timeline state of a project, or nil when
// nothing is cached.
func LoadTimeline(ctx context.Context, projectID int64) (*TimelineState, error) {
	if db.RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	payload, err := db.RedisClient.Get(ctx, timelineKey(projectID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cached timeline for project %d: %w", projectID, err)
	}

	state := &TimelineState{}
	if err := json.Unmarshal(payload, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached timeline for project %d: %w", projectID, err)
	}
	return state, nil
}

// DropTimeline removes the cached timeline state of a project.
func DropTimeline(ctx context.Context, projectID int64) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.Del(ctx, timelineKey(projectID)).Err(); err != nil {
		return fmt.Errorf("failed to drop cached timeline for project %d: %w", projectID, err)
	}
	return nil
}
