package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix             = "user:%d"
	UserProfileKeyPrefix      = "user:%d:profile"
	FeedPageKeyPrefix         = "feed:%d:page:%d"
	ConversationListKeyPrefix = "user:%d:conversations"
	SkillListKey              = "skills:all"
)

const (
	UserTTL             = 5 * time.Minute
	ProfileTTL          = 5 * time.Minute
	FeedPageTTL         = 30 * time.Second
	ConversationListTTL = 1 * time.Minute
	SkillListTTL        = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UserProfileKey(userID uint) string {
	return fmt.Sprintf(UserProfileKeyPrefix, userID)
}

func FeedPageKey(userID uint, offset int) string {
	return fmt.Sprintf(FeedPageKeyPrefix, userID, offset)
}

func ConversationListKey(userID uint) string {
	return fmt.Sprintf(ConversationListKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	Invalidate(ctx, UserProfileKey(userID))
}

func InvalidateConversations(ctx context.Context, userID uint) {
	Invalidate(ctx, ConversationListKey(userID))
}

func InvalidateSkills(ctx context.Context) {
	Invalidate(ctx, SkillListKey)
}
