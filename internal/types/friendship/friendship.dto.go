package friendship

import (
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/user"
)

type FollowRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
}

type UnfollowRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

const (
	FollowStatusAlreadyFriends = "already_friends"
	FollowStatusNewFriendship  = "new_friendship"
)

type FollowResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	Friendship *Friendship `json:"friendship,omitempty"`
}

type ProfileResponse struct {
	User        *user.Summary  `json:"user"`
	Habits      []*habit.Habit `json:"habits"`
	IsFollowing bool           `json:"is_following"`
}
