package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"yumyumCoachAPI/internal/types/challenge"
	"yumyumCoachAPI/middleware"
)

const requestTimeout = 5 * time.Second

type ChallengeService interface {
	GetChallenges(ctx context.Context, month string, userID string) (*challenge.ChallengeListResponse, error)
	GetChallengeDetail(ctx context.Context, challengeID int64, userID string) (*challenge.ChallengeResponse, error)
	JoinChallenge(ctx context.Context, challengeID int64, userID string, req *challenge.JoinChallengeRequest) (*challenge.JoinChallengeResponse, error)
	LeaveChallenge(ctx context.Context, challengeID int64, userID string) (*challenge.LeaveChallengeResponse, error)
	EvaluateProgress(ctx context.Context, challengeID int64, userID string) (*challenge.ProgressResponse, error)
}

type ChallengeHandler struct {
	challengeService ChallengeService
}

func NewChallengeHandler(challengeService ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

// Register mounts the challenge routes on an authenticated router.
func (h *ChallengeHandler) Register(r *mux.Router) {
	r.HandleFunc("/challenges", h.GetChallenges).Methods("GET")
	r.HandleFunc("/challenges/{id}", h.GetChallengeDetail).Methods("GET")
	r.HandleFunc("/challenges/{id}/join", h.JoinChallenge).Methods("POST")
	r.HandleFunc("/challenges/{id}/leave", h.LeaveChallenge).Methods("POST")
	r.HandleFunc("/challenges/{id}/progress/evaluate", h.EvaluateProgress).Methods("POST")
}

func (h *ChallengeHandler) GetChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		respondWithError(w, http.StatusBadRequest, "CHALLENGE_INVALID_MONTH_PARAM", "Query parameter 'month' is required")
		return
	}

	resp, err := h.challengeService.GetChallenges(ctx, month, clerkID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) GetChallengeDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, challengeID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.challengeService.GetChallengeDetail(ctx, challengeID, clerkID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, challengeID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req challenge.JoinChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", "Invalid request body")
		return
	}

	resp, err := h.challengeService.JoinChallenge(ctx, challengeID, clerkID, &req)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *ChallengeHandler) LeaveChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, challengeID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.challengeService.LeaveChallenge(ctx, challengeID, clerkID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ChallengeHandler) EvaluateProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	clerkID, challengeID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	resp, err := h.challengeService.EvaluateProgress(ctx, challengeID, clerkID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

// requestIdentity reads the authenticated user and the {id} path variable,
// writing the error response itself when either is missing.
func requestIdentity(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	clerkID, ok := middleware.GetClerkID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return "", 0, false
	}

	challengeID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || challengeID <= 0 {
		respondWithError(w, http.StatusBadRequest, "INVALID_CHALLENGE_ID", "Invalid challenge id")
		return "", 0, false
	}

	return clerkID, challengeID, true
}
