package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"climbx.app/pipeline/internal/model"
	"climbx.app/pipeline/internal/service"
	"github.com/google/uuid"
)

type updateProblemTierPayload struct {
	ProblemID string `json:"problemId"`
	NewTier   string `json:"newTier"`
}

// UpdateProblemTierHandler applies a recomputed tier to the problem row: the
// rating becomes the tier's numeric value and the tag list resets. Tag
// priorities are not recomputed on this path.
func UpdateProblemTierHandler(ctx context.Context, sp service.StoreProvider, item *model.WorkItem) error {
	var payload updateProblemTierPayload
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}

	problemID, err := uuid.Parse(payload.ProblemID)
	if err != nil {
		return fmt.Errorf("parsing problem id %q: %w", payload.ProblemID, err)
	}

	tier, err := model.ParseTier(payload.NewTier)
	if err != nil {
		return fmt.Errorf("parsing tier: %w", err)
	}

	if err := sp.Problems().UpdateTier(ctx, problemID, tier.Value(), tier, []string{}); err != nil {
		return fmt.Errorf("updating problem tier: %w", err)
	}
	return nil
}

// RefreshUserRatingHandler recomputes one user's rating from current stats.
// The key text is the user id; re-running the handler against unchanged
// stats writes the same totals, so retries are safe.
func RefreshUserRatingHandler(ctx context.Context, sp service.StoreProvider, item *model.WorkItem) error {
	userID, err := strconv.ParseInt(item.KeyText, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing user id %q: %w", item.KeyText, err)
	}
	return service.RefreshUserRating(ctx, sp, userID)
}

// SnapshotMarkerHandler completes the daily RANKING_HISTORY_SNAPSHOT marker.
// The snapshot rows themselves are written by the snapshot job; the marker
// only records that the day's sweep ran.
func SnapshotMarkerHandler(ctx context.Context, sp service.StoreProvider, item *model.WorkItem) error {
	return nil
}
