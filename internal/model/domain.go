package model

import (
	"time"

	"github.com/google/uuid"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusAccepted SubmissionStatus = "ACCEPTED"
	SubmissionStatusRejected SubmissionStatus = "REJECTED"
)

type Criteria string

const (
	CriteriaRating        Criteria = "RATING"
	CriteriaLongestStreak Criteria = "LONGEST_STREAK"
	CriteriaSolvedCount   Criteria = "SOLVED_COUNT"
)

type Problem struct {
	ProblemID uuid.UUID `json:"problem_id"`
	Rating    int       `json:"rating"`
	Tier      Tier      `json:"tier"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserStat struct {
	UserID            int64     `json:"user_id"`
	Rating            int       `json:"rating"`
	TopProblemRating  int       `json:"top_problem_rating"`
	SubmissionCount   int       `json:"submission_count"`
	SolvedCount       int       `json:"solved_count"`
	ContributionCount int       `json:"contribution_count"`
	LongestStreak     int       `json:"longest_streak"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Submission struct {
	VideoID   uuid.UUID        `json:"video_id"`
	UserID    int64            `json:"user_id"`
	ProblemID uuid.UUID        `json:"problem_id"`
	Status    SubmissionStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}

// RankingHistory is one daily snapshot row: a user's value for one ranking
// criteria at snapshot time.
type RankingHistory struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Criteria  Criteria  `json:"criteria"`
	Value     int       `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
