package domain

import "time"

// ChannelProfile is the public view of a user as the target of subscriptions.
type ChannelProfile struct {
	Fullname                  string `json:"fullname"`
	Username                  string `json:"username"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage"`
	Email                     string `json:"email"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// Video is an uploaded video as consulted by the watch history view.
type Video struct {
	ID          string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	OwnerID     string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VideoOwner is the minimal projection of the user owning a video.
type VideoOwner struct {
	Fullname  string `json:"fullname"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchedVideo is a watch history entry enriched with its owner.
type WatchedVideo struct {
	Video
	Owner *VideoOwner `json:"owner"`
}
