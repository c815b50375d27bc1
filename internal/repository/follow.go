package repository

import (
	"context"

	"network/internal/cache"
	"network/internal/models"
	"network/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the follow graph and the two user counters it drives.
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followeeID uint) (models.FollowState, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Toggle follows or unfollows followeeID. followers_count on the followee and
// following_count on the follower move with the relationship row.
func (r *followRepository) Toggle(ctx context.Context, followerID, followeeID uint) (state models.FollowState, err error) {
	if followerID == followeeID {
		return models.FollowState{}, models.NewValidationError("You cannot follow yourself.")
	}

	ctx, span := observability.StartCounterSpan(ctx, "toggle_follow", "follows", "followers_count")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var followee models.User
		if err := tx.Select("id").First(&followee, followeeID).Error; err != nil {
			return err
		}

		removed := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if removed.Error != nil {
			return removed.Error
		}

		if removed.RowsAffected > 0 {
			if err := subtractColumn(tx, &models.User{}, followeeID, "followers_count"); err != nil {
				return err
			}
			if err := subtractColumn(tx, &models.User{}, followerID, "following_count"); err != nil {
				return err
			}
		} else {
			inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
			if inserted.Error != nil {
				return inserted.Error
			}
			if inserted.RowsAffected > 0 {
				if err := addColumn(tx, &models.User{}, followeeID, "followers_count", 1); err != nil {
					return err
				}
				if err := addColumn(tx, &models.User{}, followerID, "following_count", 1); err != nil {
					return err
				}
			}
			state.Follow = true
		}

		return tx.Model(&models.User{}).Select("followers_count").Where("id = ?", followeeID).Scan(&state.FollowersCount).Error
	})
	if err != nil {
		return models.FollowState{}, translateError(err, "User", followeeID)
	}

	cache.InvalidateProfiles(ctx, followerID, followeeID)
	outcome := "removed"
	if state.Follow {
		outcome = "added"
	}
	observability.RecordMutation("follow", outcome)
	return state, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == 0 || followerID == followeeID {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
