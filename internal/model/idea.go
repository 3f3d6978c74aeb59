package model

import "time"

// Idea is a user-submitted proposal. OwnerID is fixed at creation.
type Idea struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Author is the public face of an idea's owner.
type Author struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url"`
	ExternalID string `json:"-"`
	AvatarRef  string `json:"-"`
}

// IdeaView is one leaderboard entry: the idea, its author, the computed vote
// count and whether the requesting viewer has voted on it.
type IdeaView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      Author    `json:"author"`
	VoteCount   int       `json:"vote_count"`
	UserVoted   bool      `json:"user_voted"`
}

// VoteResult is the outcome of a vote toggle.
type VoteResult struct {
	Voted     bool `json:"voted"`
	VoteCount int  `json:"vote_count"`
}

// Stats is a point-in-time snapshot of board totals.
type Stats struct {
	Ideas   int `json:"ideas"`
	Votes   int `json:"votes"`
	Members int `json:"members"`
}
