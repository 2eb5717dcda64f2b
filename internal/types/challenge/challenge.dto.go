package challenge

type JoinChallengeRequest struct {
	DifficultyCode string `json:"difficultyCode"`
}

type JoinChallengeResponse struct {
	ChallengeID         int64    `json:"challengeId"`
	Title               string   `json:"title"`
	Joined              bool     `json:"joined"`
	JoinedAt            string   `json:"joinedAt"`
	DifficultyCode      string   `json:"difficultyCode"`
	RequiredSuccessDays int      `json:"requiredSuccessDays"`
	DailyTargetValue    *float64 `json:"dailyTargetValue"`
	Status              string   `json:"status"`
	MyStartDate         string   `json:"myStartDate"`
	MyEndDate           string   `json:"myEndDate"`
}

type LeaveChallengeResponse struct {
	ChallengeID int64  `json:"challengeId"`
	Left        bool   `json:"left"`
	LeftAt      string `json:"leftAt"`
	// Cancelled is true when the row was removed before the challenge started.
	Cancelled bool `json:"cancelled"`
}

type ProgressResponse struct {
	ChallengeID         int64   `json:"challengeId"`
	SuccessDays         int     `json:"successDays"`
	RequiredSuccessDays int     `json:"requiredSuccessDays"`
	ProgressPercentage  float64 `json:"progressPercentage"`
	Completed           bool    `json:"completed"`
	EvaluatedAt         string  `json:"evaluatedAt"`
}

type ChallengeResponse struct {
	ChallengeID         int64    `json:"challengeId"`
	Title               string   `json:"title"`
	ShortDescription    string   `json:"shortDescription"`
	GoalSummary         string   `json:"goalSummary"`
	RuleDescription     *string  `json:"ruleDescription"`
	ImageURL            *string  `json:"imageUrl"`
	Type                string   `json:"type"`
	GoalType            string   `json:"goalType"`
	StartDate           string   `json:"startDate"`
	EndDate             string   `json:"endDate"`
	ParticipantsCount   int      `json:"participantsCount"`
	IsJoined            bool     `json:"isJoined"`
	SelectedDifficulty  *string  `json:"selectedDifficulty"`
	RequiredSuccessDays *int     `json:"requiredSuccessDays"`
	DailyTargetValue    *float64 `json:"dailyTargetValue"`
	SuccessDays         *int     `json:"successDays"`
	ProgressPercentage  *float64 `json:"progressPercentage"`
}

type ChallengeListResponse struct {
	Month      string               `json:"month"`
	Challenges []*ChallengeResponse `json:"challenges"`
}
