package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%d"
	FeedPageKeyPrefix = "feed:page:%d"
	AssetKeyPrefix    = "asset:%s"
)

const (
	UserTTL     = 5 * time.Minute
	PostTTL     = 30 * time.Minute
	FeedPageTTL = 1 * time.Minute
	AssetTTL    = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func FeedPageKey(page int) string {
	return fmt.Sprintf(FeedPageKeyPrefix, page)
}

func AssetKey(ref string) string {
	return fmt.Sprintf(AssetKeyPrefix, ref)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateAsset(ctx context.Context, ref string) {
	Invalidate(ctx, AssetKey(ref))
}

// InvalidateFeed drops the first feed page. Later pages age out on their
// short TTL instead of being enumerated.
func InvalidateFeed(ctx context.Context) {
	Invalidate(ctx, FeedPageKey(1))
}
